package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"pto/ledger"
	"pto/middleware"
)

func NewRouter(svc *ledger.Service, auth *middleware.Authenticator) http.Handler {
	authHandler := NewAuthHandler(svc, auth)
	ptoHandler := NewPTOHandler(svc)
	usersHandler := NewUsersHandler(svc)

	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	})
	router.Post("/login", authHandler.Login)
	router.Get("/logout", authHandler.Logout)

	router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware)

		r.Get("/dashboard", ptoHandler.Dashboard)
		r.Get("/notify", ptoHandler.NotifyPage)
		r.Post("/notify", ptoHandler.Notify)
		r.Get("/hours/{id}", ptoHandler.HoursPage)
		r.Post("/hours/{id}", ptoHandler.SaveHours)
		r.Get("/emails-sent/{id}", ptoHandler.EmailsSent)
		r.Get("/calendar/events", ptoHandler.CalendarEvents)
		r.Get("/list.json", ptoHandler.ListJSON)
		r.Get("/list.csv", ptoHandler.ListCSV)
		r.Get("/list.xlsx", ptoHandler.ListXLSX)
		r.Get("/profile", usersHandler.ProfilePage)
		r.Post("/profile", usersHandler.UpdateProfile)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireStaff)
			r.Post("/users", usersHandler.CreateUser)
			r.Post("/users/{id}/profile", usersHandler.UpdateUserProfile)
		})
	})

	return router
}
