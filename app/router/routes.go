// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cache"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"

	"github.com/referralpro/funnel/app/dto"
	"github.com/referralpro/funnel/app/handlers"
	"github.com/referralpro/funnel/app/middleware"
	"github.com/referralpro/funnel/config"
	"github.com/referralpro/funnel/utils"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app                 *fiber.App
	registrationHandler handlers.RegistrationHandlerInterface
	dashboardHandler    handlers.DashboardHandlerInterface
	authMiddleware      *middleware.AuthMiddleware
	security            config.SecurityConfig
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	registrationHandler handlers.RegistrationHandlerInterface,
	dashboardHandler handlers.DashboardHandlerInterface,
	authMiddleware *middleware.AuthMiddleware,
	security config.SecurityConfig,
) Router {
	app := fiber.New(fiber.Config{
		AppName:      "ReferralPro Funnel API",
		ServerHeader: "ReferralPro-Funnel",
		ErrorHandler: errorHandler,
		BodyLimit:    1 * 1024 * 1024, // 1MB, wizard steps are small
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:                 app,
		registrationHandler: registrationHandler,
		dashboardHandler:    dashboardHandler,
		authMiddleware:      authMiddleware,
		security:            security,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	// Global middleware
	r.setupMiddleware()

	// API routes
	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting)
	api.Get("/health", r.healthCheck)

	// API documentation route (development only)
	if os.Getenv("APP_ENV") == "development" || os.Getenv("APP_ENV") == "local" {
		api.Get("/docs", r.getAPIDocumentation)
		log.Println("API documentation enabled for development")
	}

	// Apply general rate limiting to all API routes (aligned with nginx)
	api.Use(limiter.New(limiter.Config{
		Max:        r.security.GlobalRateLimit,
		Expiration: r.security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP() // Rate limit by IP
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
		Next: func(c fiber.Ctx) bool {
			// Skip rate limiting for health checks
			return c.Path() == "/api/v1/health"
		},
	}))

	// Signup wizard routes with stricter rate limiting
	signup := api.Group("/signup")

	signup.Use(limiter.New(limiter.Config{
		Max:        r.security.SignupRateLimit, // a full wizard run plus retries
		Expiration: r.security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP() // Rate limit by IP
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
	}))

	// Session open is the only unauthenticated wizard endpoint
	signup.Post("/start", r.registrationHandler.StartSignup, middleware.FunnelStep("start"))

	sessionAuth := r.authMiddleware.SignupAuthenticate()
	signup.Get("/state", r.registrationHandler.GetState, sessionAuth)
	signup.Post("/welcome", r.registrationHandler.SubmitWelcome, sessionAuth, middleware.FunnelStep("welcome"))
	signup.Post("/business", r.registrationHandler.SubmitBusiness, sessionAuth, middleware.FunnelStep("business"))
	signup.Post("/business-type", r.registrationHandler.SubmitBusinessType, sessionAuth, middleware.FunnelStep("business_type"))
	signup.Post("/company-info", r.registrationHandler.SubmitCompanyInfo, sessionAuth, middleware.FunnelStep("company_info"))
	signup.Post("/subscription", r.registrationHandler.SubmitSubscription, sessionAuth, middleware.FunnelStep("subscription"))
	signup.Post("/payment", r.registrationHandler.SubmitPayment, sessionAuth, middleware.FunnelStep("payment"))
	signup.Post("/password", r.registrationHandler.SubmitPassword, sessionAuth, middleware.FunnelStep("password"))
	signup.Post("/complete", r.registrationHandler.CompleteSignup, sessionAuth, middleware.FunnelStep("complete"))
	signup.Post("/abandon", r.registrationHandler.AbandonSignup, sessionAuth, middleware.FunnelStep("abandon"))

	// Dashboard routes pass the bearer token through to the product API
	dashboard := api.Group("/dashboard")
	dashboard.Use(r.authMiddleware.DashboardPassthrough())
	dashboard.Get("/user", r.dashboardHandler.GetUser)
	dashboard.Get("/team", r.dashboardHandler.GetTeam)
	dashboard.Get("/referrals", r.dashboardHandler.GetReferrals)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// SetupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// Security headers middleware
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             r.security.XFrameOptions,
		HSTSMaxAge:                r.security.HSTSMaxAge,
		HSTSExcludeSubdomains:     false,
		ContentSecurityPolicy:     r.security.CSPPolicy,
		ReferrerPolicy:            r.security.ReferrerPolicy,
		CrossOriginEmbedderPolicy: "require-corp",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "cross-origin",
		OriginAgentCluster:        "?1",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	// CORS middleware with production settings
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: r.security.AllowedOrigins,
		AllowMethods: r.security.AllowedMethods,
		AllowHeaders: r.security.AllowedHeaders,
		ExposeHeaders: []string{
			"X-Request-ID",
			"X-Response-Time",
		},
		AllowCredentials: r.security.AllowCredentials,
		MaxAge:           r.security.CORSMaxAge,
	}))

	// Compression middleware for performance
	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			// Skip compression for certain content types
			contentType := c.Get("Content-Type")
			return contains(contentType, "image/") ||
				contains(contentType, "video/") ||
				contains(contentType, "audio/")
		},
	}))

	// Cache middleware for static content
	r.app.Use(cache.New(cache.Config{
		Next: func(c fiber.Ctx) bool {
			// Only cache GET requests to specific endpoints
			return c.Method() != "GET" ||
				!contains(c.Path(), "/health") &&
					!contains(c.Path(), "/docs")
		},
		Expiration: 30 * time.Minute,
	}))

	// Advanced logging middleware
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			// Skip logging for health checks in production
			return c.Path() == "/api/v1/health"
		},
	}))

	// Prometheus HTTP metrics
	r.app.Use(middleware.Metrics())

	// Custom security middleware
	r.app.Use(r.securityMiddleware)

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			// Log panic with request context
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Custom security middleware
func (r *FiberRouter) securityMiddleware(c fiber.Ctx) error {
	// Add security headers
	c.Set("X-Response-Time", utils.UTCNow().Format(time.RFC3339))
	c.Set("Server", "ReferralPro-Funnel")

	return c.Next()
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// Health check endpoint
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"version":   "1.0.0",
			"service":   "referralpro-funnel-api",
		},
	})
}

// API documentation endpoint
func (r *FiberRouter) getAPIDocumentation(c fiber.Ctx) error {
	docs := GetRouteDocumentation()
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "API documentation retrieved successfully",
		Data: fiber.Map{
			"title":       "ReferralPro Funnel API Documentation",
			"version":     "1.0.0",
			"description": "Registration wizard and dashboard BFF API",
			"endpoints":   docs,
		},
	})
}

// 404 handler
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	requestID := c.Locals("requestid")

	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestID,
			},
		},
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	// Default error code
	code := fiber.StatusInternalServerError

	// Retrieve the custom status code if it's a fiber.*Error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Log the error
	log.Printf("Error %d: %v", code, err)

	// Get RequestID for tracing
	requestID := c.Locals("requestid")

	// Return JSON error response
	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestID,
			},
		},
	})
}

// Helper functions

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// contains checks if a string contains a substring
func contains(str, substr string) bool {
	return strings.Contains(str, substr)
}

// GetRouteDocumentation returns API documentation
func GetRouteDocumentation() []map[string]any {
	return []map[string]any{
		{
			"method":      "POST",
			"path":        "/api/v1/signup/start",
			"description": "Open a signup session and receive the wizard session token",
		},
		{
			"method":      "GET",
			"path":        "/api/v1/signup/state",
			"description": "Current registration record and selection summary",
		},
		{
			"method":      "POST",
			"path":        "/api/v1/signup/welcome",
			"description": "Record the profile selection",
			"parameters": map[string]any{
				"profileType": "string (required) - company|contractor",
			},
		},
		{
			"method":      "POST",
			"path":        "/api/v1/signup/business",
			"description": "Record names, email and industry",
			"parameters": map[string]any{
				"firstName":   "string (required)",
				"lastName":    "string (required)",
				"email":       "string (required)",
				"industry":    "string (required)",
				"companyName": "string (required for company profiles)",
			},
		},
		{
			"method":      "POST",
			"path":        "/api/v1/signup/business-type",
			"description": "Record the business classification",
			"parameters": map[string]any{
				"bizType":   "string (required) - sole|partnership|nonprofit|corporation|llc|other",
				"years":     "string (required)",
				"employees": "string (required)",
				"usState":   "string (required)",
			},
		},
		{
			"method":      "POST",
			"path":        "/api/v1/signup/company-info",
			"description": "Record the postal and contact block",
		},
		{
			"method":      "POST",
			"path":        "/api/v1/signup/subscription",
			"description": "Record the plan selection; totals are recomputed server-side",
			"parameters": map[string]any{
				"planId":      "number (required) - 0 starter | 1 growth | 3 custom",
				"billing":     "string (required) - monthly|yearly",
				"seats":       "number (custom plan only) - 5..500 in steps of 5",
				"paymentType": "string (required) - bank|stripe",
			},
		},
		{
			"method":      "POST",
			"path":        "/api/v1/signup/payment",
			"description": "Record the card details",
		},
		{
			"method":      "POST",
			"path":        "/api/v1/signup/password",
			"description": "Hold the credential in ephemeral session state",
		},
		{
			"method":      "POST",
			"path":        "/api/v1/signup/complete",
			"description": "Assemble the payload and submit it to the product API",
		},
		{
			"method":      "POST",
			"path":        "/api/v1/signup/abandon",
			"description": "Tear the session down and clear durable state",
		},
		{
			"method":      "GET",
			"path":        "/api/v1/dashboard/user",
			"description": "Authenticated profile, placeholder on upstream failure",
		},
		{
			"method":      "GET",
			"path":        "/api/v1/dashboard/team",
			"description": "Team roster, placeholder on upstream failure",
		},
		{
			"method":      "GET",
			"path":        "/api/v1/dashboard/referrals",
			"description": "Company referrals, placeholder on upstream failure",
		},
	}
}
