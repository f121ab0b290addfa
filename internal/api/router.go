package api

import (
	"net/http" // Metrics handler type

	"ngo_tracker/internal/domain"       // Roles
	"ngo_tracker/internal/donation"     // Donation lifecycle
	"ngo_tracker/internal/funding"      // Funding breakdowns
	"ngo_tracker/internal/identity"     // Accounts and tokens
	"ngo_tracker/internal/middleware"   // Auth middlewares
	"ngo_tracker/internal/verification" // NGO workflow

	"github.com/gin-gonic/gin" // Gin web framework
)

// Deps are the services the HTTP API is built on
type Deps struct {
	Identity     *identity.Service
	Verification *verification.Service
	Donations    *donation.Service
	Funding      *funding.Service
	Cache        Cache
	Metrics      http.Handler // Optional, mounted on /metrics
}

// RegisterRoutes mounts every endpoint on r
func RegisterRoutes(r *gin.Engine, d Deps) {
	auth := middleware.JWTAuthMiddleware(d.Identity)

	// Auth routes
	r.POST("/user", RegisterHandler(d.Identity))                            // Registration endpoint
	r.GET("/user", LoginHandler(d.Identity))                                // Login endpoint
	r.POST("/user/login", LoginHandler(d.Identity))                         // Login for clients that cannot send a GET body
	r.GET("/user/verify", VerifyEmailHandler(d.Identity))                   // Email verification endpoint
	r.POST("/user/password/reset-request", RequestResetHandler(d.Identity)) // Reset link by event
	r.POST("/user/password/reset", ResetPasswordHandler(d.Identity))        // Redeem reset token

	// NGO routes (protected, NGO only)
	ngoGroup := r.Group("/ngo")
	ngoGroup.Use(auth, middleware.RequireRole(d.Identity, domain.RoleNGO))
	ngoGroup.POST("", RegisterNGOHandler(d.Verification))                                 // Register NGO
	ngoGroup.GET("", GetNGOHandler(d.Verification))                                       // Own NGO with code
	ngoGroup.PUT("/wallet", UpdateWalletHandler(d.Verification, d.Cache))                 // Receiving wallet
	ngoGroup.GET("/donations", NGODonationsHandler(d.Donations, d.Cache))                 // Received donations
	ngoGroup.POST("/donations/:id/evidence", AttachEvidenceHandler(d.Donations, d.Cache)) // Evidence upload
	ngoGroup.POST("/projects", CreateProjectHandler(d.Verification))                      // New project
	ngoGroup.GET("/projects", OwnProjectsHandler(d.Verification))                         // Own projects

	// Public listings (any signed-in user)
	listGroup := r.Group("")
	listGroup.Use(auth)
	listGroup.GET("/projects", ApprovedProjectsHandler(d.Verification, d.Cache)) // Approved projects
	listGroup.GET("/ngos", ApprovedNGOsHandler(d.Verification, d.Cache))         // Verified NGOs

	// Donor routes (protected, Donor only)
	donorGroup := r.Group("/donations")
	donorGroup.Use(auth, middleware.RequireRole(d.Identity, domain.RoleDonor))
	donorGroup.POST("", DonateHandler(d.Donations, d.Cache))                // Transfer and record
	donorGroup.POST("/record", RecordDonationHandler(d.Donations, d.Cache)) // Save a confirmed transfer
	donorGroup.GET("", DonorDonationsHandler(d.Donations, d.Cache))         // Donation history by address

	// Government routes (protected, authorizer only)
	govGroup := r.Group("/gov")
	govGroup.Use(auth, middleware.RequireRole(d.Identity, domain.RoleAuthorizer))
	govGroup.POST("/verify", VerifyNGOHandler(d.Verification, d.Cache))
	govGroup.GET("/ngos", ListNGOsHandler(d.Verification))
	govGroup.GET("/ngos/:id", NGODetailHandler(d.Verification))
	govGroup.GET("/ngos/:id/funding", FundingHandler(d.Verification, d.Funding, d.Cache))
	govGroup.POST("/ngos/:id/grant", GrantHandler(d.Verification, d.Donations, d.Cache))
	govGroup.POST("/ngos/:id/grant/record", RecordGrantHandler(d.Verification, d.Donations, d.Cache))
	govGroup.GET("/projects", AllProjectsHandler(d.Verification))
	govGroup.PUT("/projects/:id/approve", ApproveProjectHandler(d.Verification, d.Cache))
	govGroup.DELETE("/projects/:id", DeleteProjectHandler(d.Verification, d.Cache))
	govGroup.GET("/donations/:id", DonationHandler(d.Donations))
	govGroup.PUT("/donations/:id/reject", RejectDonationHandler(d.Donations, d.Cache))

	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics)) // Prometheus scrape endpoint
	}
}
