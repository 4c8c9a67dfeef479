package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"civicfix/handler"
	"civicfix/middleware"
	"civicfix/models"
	"civicfix/service"
	"civicfix/storage"
	"civicfix/worker"
)

// SetupRoutes configures all API routes
func SetupRoutes(
	intakeService *service.IntakeService,
	complaintService *service.ComplaintService,
	signoffService *service.SignoffService,
	communityService *service.CommunityService,
	escalationService *service.EscalationService,
	notificationService *service.NotificationService,
	auditSink *service.AuditSink,
	escalationWorker *worker.EscalationWorker,
	objects storage.ObjectStore,
	jwtSecret string,
) *mux.Router {
	router := mux.NewRouter()

	// Initialize handlers
	complaintHandler := handler.NewComplaintHandler(intakeService, complaintService, signoffService)
	signoffHandler := handler.NewSignoffHandler(signoffService, objects)
	communityHandler := handler.NewCommunityHandler(communityService)
	escalationHandler := handler.NewEscalationHandler(escalationService, escalationWorker)
	auditHandler := handler.NewAuditHandler(auditSink)
	notificationHandler := handler.NewNotificationHandler(notificationService)

	// Initialize auth middleware
	actorAuth := middleware.NewActorMiddleware(jwtSecret)
	requireActor := actorAuth.RequireActor
	requireAdmin := actorAuth.RequireRole(models.RoleAdmin)
	requireAuthority := actorAuth.RequireRole(
		models.RoleDeptHead, models.RoleCommissioner, models.RoleAdmin)

	// GET /health - liveness probe (no auth)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Complaint routes
	complaints := router.PathPrefix("/complaints").Subrouter()

	complaints.Handle("/pending-routing", requireAdmin(http.HandlerFunc(complaintHandler.ListPendingRouting))).Methods("GET")
	complaints.Handle("/check-duplicates", requireActor(http.HandlerFunc(communityHandler.CheckDuplicates))).Methods("POST")

	complaints.Handle("/citizen/{citizenId}", requireActor(http.HandlerFunc(complaintHandler.CreateComplaint))).Methods("POST")
	complaints.Handle("/citizen/{citizenId}/with-image", requireActor(http.HandlerFunc(complaintHandler.CreateComplaintWithImage))).Methods("POST")
	complaints.Handle("/citizen/{citizenId}", requireActor(http.HandlerFunc(complaintHandler.ListByCitizen))).Methods("GET")

	complaints.Handle("/{id}", requireActor(http.HandlerFunc(complaintHandler.GetComplaint))).Methods("GET")
	complaints.Handle("/{id}/details", requireActor(http.HandlerFunc(complaintHandler.GetComplaintDetails))).Methods("GET")
	complaints.Handle("/{id}/allowed-transitions", requireActor(http.HandlerFunc(complaintHandler.AllowedTransitions))).Methods("GET")

	complaints.Handle("/{id}/state", requireActor(http.HandlerFunc(complaintHandler.ChangeState))).Methods("PUT")
	complaints.Handle("/{id}/start", requireAdmin(http.HandlerFunc(complaintHandler.StartComplaint))).Methods("PUT")
	complaints.Handle("/{id}/resolve", requireActor(http.HandlerFunc(complaintHandler.ResolveComplaint))).Methods("PUT")
	complaints.Handle("/{id}/close", requireActor(http.HandlerFunc(complaintHandler.CloseComplaint))).Methods("PUT")
	complaints.Handle("/{id}/cancel", requireActor(http.HandlerFunc(complaintHandler.CancelComplaint))).Methods("PUT")
	complaints.Handle("/{id}/rate", requireActor(http.HandlerFunc(complaintHandler.RateComplaint))).Methods("PUT")
	complaints.Handle("/{id}/assign-department", requireAdmin(http.HandlerFunc(complaintHandler.AssignDepartment))).Methods("PUT")
	complaints.Handle("/{id}/assign-staff/{staffId}", requireAuthority(http.HandlerFunc(complaintHandler.AssignStaff))).Methods("PUT")
	complaints.Handle("/{id}/sla", requireAdmin(http.HandlerFunc(complaintHandler.OverrideSLA))).Methods("PUT")

	// Proof and signoff routes
	complaints.Handle("/{id}/resolution-proof", requireActor(http.HandlerFunc(signoffHandler.SubmitProof))).Methods("POST")
	complaints.Handle("/{id}/resolution-proofs", requireActor(http.HandlerFunc(signoffHandler.ListProofs))).Methods("GET")
	complaints.Handle("/{id}/signoff", requireActor(http.HandlerFunc(signoffHandler.Signoff))).Methods("POST")
	complaints.Handle("/{id}/dispute/{signoffId}/approve", requireAuthority(http.HandlerFunc(signoffHandler.ApproveDispute))).Methods("POST")
	complaints.Handle("/{id}/dispute/{signoffId}/reject", requireAuthority(http.HandlerFunc(signoffHandler.RejectDispute))).Methods("POST")

	// Community routes
	community := router.PathPrefix("/community/complaints").Subrouter()
	community.Handle("/nearby", requireActor(http.HandlerFunc(communityHandler.Nearby))).Methods("GET")
	community.Handle("/trending", requireActor(http.HandlerFunc(communityHandler.Trending))).Methods("GET")
	community.Handle("/{id}/upvote", requireActor(http.HandlerFunc(communityHandler.Upvote))).Methods("POST")
	community.Handle("/{id}/upvote", requireActor(http.HandlerFunc(communityHandler.RemoveUpvote))).Methods("DELETE")

	// Escalation routes (authority only)
	escalations := router.PathPrefix("/escalations").Subrouter()
	escalations.Handle("/overdue", requireAuthority(http.HandlerFunc(escalationHandler.Overdue))).Methods("GET")
	escalations.Handle("/stats", requireAuthority(http.HandlerFunc(escalationHandler.Stats))).Methods("GET")
	escalations.Handle("/trigger", requireAdmin(http.HandlerFunc(escalationHandler.Trigger))).Methods("POST")

	// Audit routes (authority only; the log is read-only over HTTP)
	audit := router.PathPrefix("/audit").Subrouter()
	audit.Handle("/complaint/{id}", requireAuthority(http.HandlerFunc(auditHandler.ByComplaint))).Methods("GET")
	audit.Handle("/recent", requireAuthority(http.HandlerFunc(auditHandler.Recent))).Methods("GET")
	audit.Handle("/action/{action}", requireAuthority(http.HandlerFunc(auditHandler.ByAction))).Methods("GET")
	audit.Handle("/actor/{actorId}", requireAuthority(http.HandlerFunc(auditHandler.ByActor))).Methods("GET")

	// Notification inbox
	notifications := router.PathPrefix("/notifications").Subrouter()
	notifications.Handle("", requireActor(http.HandlerFunc(notificationHandler.Inbox))).Methods("GET")
	notifications.Handle("/{id}/read", requireActor(http.HandlerFunc(notificationHandler.MarkRead))).Methods("PUT")

	return router
}
