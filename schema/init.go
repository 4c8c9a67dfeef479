// Package schema: safe database initialization. Creates only missing tables, never drops or overwrites.

package schema

import (
	"database/sql"
	"log"

	"civicfix/models"
)

// InitializeDatabase ensures every table exists. Checks INFORMATION_SCHEMA;
// creates only what is missing, in dependency order, then seeds routing and
// SLA master data. Does not drop or recreate tables; does not remove data.
func InitializeDatabase(db *sql.DB) {
	ensureTable(db, "departments", createDepartmentsTable)
	ensureTable(db, "category_departments", createCategoryDepartmentsTable)
	ensureTable(db, "sla_policies", createSLAPoliciesTable)
	ensureTable(db, "department_staff", createDepartmentStaffTable)
	ensureTable(db, "role_holders", createRoleHoldersTable)
	ensureTable(db, "complaints", createComplaintsTable)
	ensureTable(db, "resolution_proofs", createResolutionProofsTable)
	ensureTable(db, "citizen_signoffs", createCitizenSignoffsTable)
	ensureTable(db, "complaint_upvotes", createComplaintUpvotesTable)
	ensureTable(db, "audit_log", createAuditLogTable)
	ensureTable(db, "notifications", createNotificationsTable)

	seedDepartments(db)
	seedCategoryDepartments(db)
	seedSLAPolicies(db)

	log.Println("[SCHEMA] Schema check passed")
}

func ensureTable(db *sql.DB, table string, create func(*sql.DB)) {
	exists, err := tableExists(db, table)
	if err != nil {
		log.Fatalf("[SCHEMA] Failed to check if table %s exists: %v", table, err)
	}
	if exists {
		log.Printf("[SCHEMA] %s table exists", table)
		return
	}
	create(db)
	log.Printf("[SCHEMA] created %s table", table)
}

func tableExists(db *sql.DB, table string) (bool, error) {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM information_schema.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?`,
		table,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func mustExec(db *sql.DB, table, q string) {
	if _, err := db.Exec(q); err != nil {
		log.Fatalf("[SCHEMA] Failed to create table %s: %v", table, err)
	}
}

func createDepartmentsTable(db *sql.DB) {
	mustExec(db, "departments", `
CREATE TABLE IF NOT EXISTS departments (
    code VARCHAR(32) PRIMARY KEY COMMENT 'Stable department code (ROADS, WATER, ...)',
    name VARCHAR(255) NOT NULL,
    head_user_id BIGINT NOT NULL DEFAULT 0 COMMENT 'Department head user id; 0 when unassigned',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`)
}

func createCategoryDepartmentsTable(db *sql.DB) {
	mustExec(db, "category_departments", `
CREATE TABLE IF NOT EXISTS category_departments (
    category VARCHAR(32) PRIMARY KEY,
    department_code VARCHAR(32) NOT NULL,
    FOREIGN KEY (department_code) REFERENCES departments(code)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`)
}

func createSLAPoliciesTable(db *sql.DB) {
	mustExec(db, "sla_policies", `
CREATE TABLE IF NOT EXISTS sla_policies (
    category VARCHAR(32) PRIMARY KEY,
    days INT NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`)
}

func createDepartmentStaffTable(db *sql.DB) {
	mustExec(db, "department_staff", `
CREATE TABLE IF NOT EXISTS department_staff (
    staff_id BIGINT NOT NULL,
    department_code VARCHAR(32) NOT NULL,
    PRIMARY KEY (staff_id, department_code),
    FOREIGN KEY (department_code) REFERENCES departments(code)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`)
}

func createRoleHoldersTable(db *sql.DB) {
	mustExec(db, "role_holders", `
CREATE TABLE IF NOT EXISTS role_holders (
    user_id BIGINT NOT NULL,
    role VARCHAR(32) NOT NULL COMMENT 'MUNICIPAL_COMMISSIONER, ADMIN, SUPER_ADMIN',
    PRIMARY KEY (user_id, role),
    INDEX idx_role (role)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`)
}

func createComplaintsTable(db *sql.DB) {
	mustExec(db, "complaints", `
CREATE TABLE IF NOT EXISTS complaints (
    complaint_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    complaint_number VARCHAR(32) UNIQUE NOT NULL COMMENT 'Human-shareable GRV-YYYYMMDD-xxxxxxxx',
    citizen_id BIGINT NOT NULL,
    title VARCHAR(200) NOT NULL,
    description TEXT NOT NULL,
    location VARCHAR(500) NOT NULL,
    latitude DECIMAL(10,7) NULL,
    longitude DECIMAL(10,7) NULL,
    image_key VARCHAR(128) NULL,
    image_mime VARCHAR(64) NULL,
    image_findings TEXT NULL,
    image_analyzed_at TIMESTAMP NULL,
    category VARCHAR(32) NOT NULL,
    priority VARCHAR(16) NOT NULL,
    ai_reasoning TEXT NULL,
    ai_confidence DECIMAL(4,3) NULL,
    department_id VARCHAR(32) NULL,
    staff_id BIGINT NULL,
    current_status VARCHAR(16) NOT NULL DEFAULT 'FILED',
    filed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    sla_days_assigned INT NOT NULL DEFAULT 0,
    sla_deadline TIMESTAMP NULL,
    resolved_at TIMESTAMP NULL,
    closed_at TIMESTAMP NULL,
    escalation_level INT NOT NULL DEFAULT 0,
    upvote_count INT NOT NULL DEFAULT 0,
    rating INT NULL,
    feedback TEXT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NULL,
    INDEX idx_status (current_status),
    INDEX idx_category (category),
    INDEX idx_sla_deadline (sla_deadline),
    INDEX idx_citizen (citizen_id),
    INDEX idx_department (department_id),
    INDEX idx_escalation_level (escalation_level),
    FOREIGN KEY (department_id) REFERENCES departments(code)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`)
}

func createResolutionProofsTable(db *sql.DB) {
	mustExec(db, "resolution_proofs", `
CREATE TABLE IF NOT EXISTS resolution_proofs (
    proof_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    complaint_id BIGINT NOT NULL,
    author_staff_id BIGINT NOT NULL,
    image_key VARCHAR(128) NOT NULL,
    remarks TEXT NOT NULL,
    captured_lat DECIMAL(10,7) NULL,
    captured_lng DECIMAL(10,7) NULL,
    captured_at TIMESTAMP NULL,
    verified BOOLEAN NOT NULL DEFAULT FALSE,
    submitted_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_complaint (complaint_id),
    FOREIGN KEY (complaint_id) REFERENCES complaints(complaint_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`)
}

func createCitizenSignoffsTable(db *sql.DB) {
	mustExec(db, "citizen_signoffs", `
CREATE TABLE IF NOT EXISTS citizen_signoffs (
    signoff_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    complaint_id BIGINT NOT NULL,
    citizen_id BIGINT NOT NULL,
    kind VARCHAR(16) NOT NULL COMMENT 'ACCEPT or DISPUTE',
    rating INT NULL,
    feedback TEXT NULL,
    dispute_reason TEXT NULL,
    dispute_image_key VARCHAR(128) NULL,
    dispute_status VARCHAR(16) NULL COMMENT 'PENDING, APPROVED, REJECTED',
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_complaint (complaint_id),
    INDEX idx_complaint_active (complaint_id, active),
    FOREIGN KEY (complaint_id) REFERENCES complaints(complaint_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`)
}

func createComplaintUpvotesTable(db *sql.DB) {
	mustExec(db, "complaint_upvotes", `
CREATE TABLE IF NOT EXISTS complaint_upvotes (
    upvote_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    complaint_id BIGINT NOT NULL,
    citizen_id BIGINT NOT NULL,
    latitude DECIMAL(10,7) NULL,
    longitude DECIMAL(10,7) NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE KEY uq_complaint_citizen (complaint_id, citizen_id),
    FOREIGN KEY (complaint_id) REFERENCES complaints(complaint_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`)
}

func createAuditLogTable(db *sql.DB) {
	mustExec(db, "audit_log", `
CREATE TABLE IF NOT EXISTS audit_log (
    audit_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    entity_type VARCHAR(32) NOT NULL,
    entity_id VARCHAR(64) NOT NULL,
    action VARCHAR(32) NOT NULL,
    old_value TEXT NULL,
    new_value TEXT NULL,
    actor_type VARCHAR(16) NOT NULL,
    actor_id BIGINT NULL,
    reason TEXT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_entity (entity_type, entity_id),
    INDEX idx_created_at (created_at),
    INDEX idx_actor (actor_id),
    INDEX idx_action (action)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`)
}

func createNotificationsTable(db *sql.DB) {
	mustExec(db, "notifications", `
CREATE TABLE IF NOT EXISTS notifications (
    notification_id BIGINT PRIMARY KEY AUTO_INCREMENT,
    recipient_id BIGINT NOT NULL,
    type VARCHAR(32) NOT NULL,
    title VARCHAR(255) NOT NULL,
    message TEXT NOT NULL,
    complaint_ref BIGINT NULL,
    read_flag BOOLEAN NOT NULL DEFAULT FALSE,
    attempted BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    INDEX idx_recipient (recipient_id),
    INDEX idx_attempted (attempted),
    INDEX idx_complaint_type (complaint_ref, type)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`)
}

// seedDepartments inserts the default departments, skipping existing rows
func seedDepartments(db *sql.DB) {
	departments := map[string]string{
		"ROADS":      "Roads and Infrastructure",
		"LIGHTING":   "Street Lighting",
		"WATER":      "Water Supply",
		"SANITATION": "Sanitation and Waste",
		"TRAFFIC":    "Traffic Management",
		"PARKS":      "Parks and Recreation",
		"ELECTRICAL": "Electrical Maintenance",
		"GENERAL":    "General Administration",
	}
	for code, name := range departments {
		if _, err := db.Exec(
			`INSERT IGNORE INTO departments (code, name) VALUES (?, ?)`,
			code, name,
		); err != nil {
			log.Fatalf("[SCHEMA] Failed to seed department %s: %v", code, err)
		}
	}
}

// seedCategoryDepartments inserts the default category routing
func seedCategoryDepartments(db *sql.DB) {
	for category, code := range models.DefaultDepartmentByCategory {
		if _, err := db.Exec(
			`INSERT IGNORE INTO category_departments (category, department_code) VALUES (?, ?)`,
			category, code,
		); err != nil {
			log.Fatalf("[SCHEMA] Failed to seed category routing %s: %v", category, err)
		}
	}
}

// seedSLAPolicies inserts the default per-category SLA day budgets
func seedSLAPolicies(db *sql.DB) {
	for category, days := range models.DefaultSLADays {
		if _, err := db.Exec(
			`INSERT IGNORE INTO sla_policies (category, days) VALUES (?, ?)`,
			category, days,
		); err != nil {
			log.Fatalf("[SCHEMA] Failed to seed SLA policy %s: %v", category, err)
		}
	}
}
