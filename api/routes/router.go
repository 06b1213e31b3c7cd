package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joinhively/hively-backend/api/controllers"
	"github.com/joinhively/hively-backend/api/middleware"
	"github.com/joinhively/hively-backend/pkg/config"
	"github.com/joinhively/hively-backend/pkg/logger"
)

// NewRouter wires the HTTP surface: health probes, metrics, and the
// authenticated session endpoints backed by the reconciliation engine.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	db controllers.Pinger,
	redis controllers.Pinger,
	engines controllers.EngineProvider,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, db, redis))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(engines, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(engines, logg))
			r.Post("/", controllers.CreateNotification(engines, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(engines, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(engines, logg))
			r.Delete("/{notificationId}", controllers.DeleteNotification(engines, logg))
		})

		r.Route("/friends/requests", func(r chi.Router) {
			r.Get("/incoming", controllers.IncomingFriendRequests(engines, logg))
			r.Get("/outgoing", controllers.OutgoingFriendRequests(engines, logg))
			r.Post("/", controllers.SendFriendRequest(engines, logg))
			r.Post("/{requestId}/accept", controllers.AcceptFriendRequest(engines, logg))
			r.Post("/{requestId}/reject", controllers.RejectFriendRequest(engines, logg))
		})

		r.Route("/messages", func(r chi.Router) {
			r.Get("/unread-count", controllers.UnreadMessageCount(engines, logg))
			r.Post("/read-all", controllers.MarkAllMessagesRead(engines, logg))
			r.Post("/{messageId}/read", controllers.MarkMessageRead(engines, logg))
		})

		r.Delete("/session", controllers.CloseSession(engines, logg))
	})

	return r
}
