package main

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chengzhnag/taskboard/internal/api"
	apiMiddleware "github.com/chengzhnag/taskboard/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware. It accepts the application dependencies to create handlers
// and register routes.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	// Create API handlers using the application's services
	taskHandler := api.NewTaskHandler(app.taskService, app.logger)
	categoryHandler := api.NewCategoryHandler(app.contentService, app.logger)
	questionHandler := api.NewQuestionHandler(app.contentService, app.logger)
	mailHandler := api.NewMailHandler(app.mailService, app.logger)
	authHandler := api.NewAuthHandler(app.verifier, app.config.Server.LoginPageURL, app.logger)
	credMiddleware := apiMiddleware.NewCredentialMiddleware(app.verifier)

	// Task endpoints. Reads and the sweep trigger are public; mutations
	// require the auth cookie and redirect browsers to the login page.
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", taskHandler.ListTasks)
		r.Post("/execute", taskHandler.ExecuteTasks)

		r.Group(func(r chi.Router) {
			r.Use(credMiddleware.RequireCookie)
			r.Post("/", taskHandler.CreateTask)
			r.Put("/{id}", taskHandler.UpdateTask)
			r.Delete("/{id}", taskHandler.DeleteTask)
		})
	})

	// Content endpoints. Reads are public; mutations answer 401 JSON when
	// the credential is missing or wrong.
	r.Route("/api", func(r chi.Router) {
		r.Get("/categories", categoryHandler.ListCategories)
		r.Get("/categories/{id}", categoryHandler.GetCategory)
		r.Get("/questions", questionHandler.ListQuestions)
		r.Get("/questions/{id}", questionHandler.GetQuestion)

		// Batch insert stays open: the admin page calls it before the
		// credential cookie is guaranteed to exist.
		r.Post("/questions/batch", questionHandler.BatchCreateQuestions)

		r.Group(func(r chi.Router) {
			r.Use(credMiddleware.RequireCredential)
			r.Post("/categories", categoryHandler.CreateCategory)
			r.Put("/categories/{id}", categoryHandler.UpdateCategory)
			r.Delete("/categories/{id}", categoryHandler.DeleteCategory)
			r.Post("/questions", questionHandler.CreateQuestion)
			r.Put("/questions/{id}", questionHandler.UpdateQuestion)
			r.Delete("/questions/{id}", questionHandler.DeleteQuestion)
		})
	})

	r.Post("/send-mail", mailHandler.SendMail)

	// Authentication endpoints
	r.Get("/auth", authHandler.Authenticate)
	r.Get("/login", authHandler.LoginPage)

	// Root redirects to the admin page once the auth cookie is present,
	// otherwise to the login page.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if credMiddleware.Authenticated(r) {
			http.Redirect(w, r, "/index.html", http.StatusFound)
			return
		}
		http.Redirect(w, r, "/login", http.StatusFound)
	})

	// Static assets for the admin UI, when a build directory is configured.
	if dir := app.config.Server.StaticDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			fs := http.FileServer(http.Dir(dir))
			r.Handle("/assets/*", fs)
			r.Get("/index.html", func(w http.ResponseWriter, r *http.Request) {
				http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			})
			r.Get("/admin.html", func(w http.ResponseWriter, r *http.Request) {
				http.ServeFile(w, r, filepath.Join(dir, "admin.html"))
			})
		} else {
			app.logger.Warn("static directory not found, skipping static routes", "dir", dir)
		}
	}

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
