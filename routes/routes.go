package routes

import (
	"mealpedeal-api/handlers"
	"mealpedeal-api/middleware"
	"mealpedeal-api/models"
	"mealpedeal-api/statemachine"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine) {
	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Auth
		public.POST("/auth/register", handlers.Register)
		public.POST("/auth/login", handlers.Login)

		// Restaurants & menus
		public.GET("/restaurants", handlers.ListRestaurants)
		public.GET("/restaurants/nearby", handlers.NearbyRestaurants)
		public.GET("/restaurants/top-performers", handlers.TopPerformers)
		public.GET("/restaurants/cuisine-distribution", handlers.CuisineDistribution)
		public.GET("/restaurants/:id", handlers.GetRestaurant)
		public.GET("/restaurants/:id/menu", handlers.GetMenu)
		public.GET("/restaurants/:id/environmental-impact", handlers.GetRestaurantImpact)
		public.GET("/restaurants/:id/compliance", handlers.GetRestaurantCompliance)
		public.GET("/restaurants/:id/dietary-options", handlers.GetRestaurantDietaryOptions)
		public.GET("/restaurants/:id/reviews", handlers.GetRestaurantReviews)
		public.GET("/restaurants/:id/reviews/summary", handlers.GetRestaurantReviewSummary)

		// Mystery bags
		public.GET("/mystery-bags", handlers.ListMysteryBags)
		public.GET("/mystery-bags/lifecycle", handlers.GetBagLifecycleInfo)
		public.GET("/mystery-bags/:bagId", handlers.GetMysteryBag)
		public.GET("/mystery-bags/:bagId/reviews", handlers.GetBagReviews)
		public.GET("/mystery-bags/:bagId/reviews/summary", handlers.GetBagReviewSummary)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired())
	{
		auth.GET("/profile", handlers.GetProfile)
		auth.PUT("/profile", handlers.UpdateProfile)
		auth.PUT("/profile/dietary-preferences", handlers.UpdateDietaryPreferences)
		auth.PUT("/profile/location", handlers.UpdateLocation)
		auth.GET("/profile/notification-preferences", handlers.GetNotificationPreferences)
		auth.PUT("/profile/notification-preferences", handlers.UpdateNotificationPreferences)
		auth.GET("/profile/environmental-impact", handlers.GetMyImpact)
		auth.POST("/auth/send-otp", handlers.SendOTP)
		auth.POST("/auth/verify-otp", handlers.VerifyOTP)
		auth.POST("/referrals/apply", handlers.ApplyReferral)
		auth.GET("/referrals/stats", handlers.GetReferralStats)
	}

	// ── Customer routes ────────────────────────────────────────────
	customer := r.Group("/api/customer")
	customer.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleCustomer))
	{
		customer.POST("/mystery-bags/:bagId/purchase", handlers.PurchaseBag)
		customer.GET("/purchases", handlers.GetMyPurchases)
		customer.GET("/mystery-bags/recommended", handlers.RecommendedBags)
		customer.GET("/favorites", handlers.GetFavorites)
		customer.POST("/favorites/:id", handlers.ToggleFavorite)

		customer.POST("/restaurant-reviews", handlers.CreateRestaurantReview)
		customer.POST("/mystery-bag-reviews", handlers.CreateBagReview)
		customer.POST("/reviews/:type/:reviewId/vote", handlers.VoteReview)
		customer.POST("/reviews/:type/:reviewId/flag", handlers.FlagReview)
	}

	// ── Restaurant manager routes ──────────────────────────────────
	manager := r.Group("/api/manager")
	manager.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleRestaurantManager))
	{
		// Restaurant management
		manager.POST("/restaurants", handlers.CreateRestaurant)
		manager.GET("/restaurants", handlers.GetMyRestaurants)
		manager.PUT("/restaurants/:id", handlers.UpdateRestaurant)
		manager.PUT("/restaurants/:id/compliance", handlers.UpdateCompliance)
		manager.PUT("/restaurants/:id/location", handlers.UpdateRestaurantLocation)
		manager.PUT("/restaurants/:id/mystery-bag-config", handlers.UpdateMysteryBagConfig)
		manager.PUT("/restaurants/:id/activate", handlers.SetRestaurantActive(true))
		manager.PUT("/restaurants/:id/deactivate", handlers.SetRestaurantActive(false))

		// Menu management
		manager.POST("/restaurants/:id/menu", handlers.AddMenuItem)
		manager.PUT("/menu/:itemId", handlers.UpdateMenuItem)
		manager.DELETE("/menu/:itemId", handlers.DeleteMenuItem)

		// Mystery bags
		manager.POST("/restaurants/:id/mystery-bags", handlers.CreateMysteryBag)
		manager.GET("/restaurants/:id/mystery-bags", handlers.GetRestaurantBags)
		manager.PUT("/mystery-bags/:bagId", handlers.UpdateMysteryBag)
		manager.PUT("/mystery-bags/:bagId/activate", handlers.SetBagActive(statemachine.ActorManager, true))
		manager.PUT("/mystery-bags/:bagId/deactivate", handlers.SetBagActive(statemachine.ActorManager, false))
		manager.GET("/mystery-bags/:bagId/history", handlers.GetBagHistory)
		manager.POST("/restaurants/:id/templates", handlers.CreateTemplate)
		manager.GET("/restaurants/:id/templates", handlers.GetTemplates)
		manager.POST("/templates/:templateId/mystery-bags", handlers.CreateBagFromTemplate)

		manager.POST("/reviews/:type/:reviewId/response", handlers.RespondToReview)
	}

	// ── Moderator routes ───────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleModerator))
	{
		admin.GET("/sales", handlers.AdminSalesSummary)
		admin.GET("/users", handlers.AdminGetAllUsers)
		admin.POST("/moderators", handlers.AdminCreateModerator)
		admin.PUT("/users/:id/active", handlers.AdminSetUserActive)

		admin.GET("/restaurants", handlers.AdminGetAllRestaurants)
		admin.PUT("/restaurants/:id/verify", handlers.AdminSetRestaurantVerified(true))
		admin.PUT("/restaurants/:id/unverify", handlers.AdminSetRestaurantVerified(false))
		admin.PUT("/restaurants/:id/activate", handlers.AdminSetRestaurantActive(true))
		admin.PUT("/restaurants/:id/deactivate", handlers.AdminSetRestaurantActive(false))

		admin.PUT("/mystery-bags/:bagId/activate", handlers.SetBagActive(statemachine.ActorModerator, true))
		admin.PUT("/mystery-bags/:bagId/deactivate", handlers.SetBagActive(statemachine.ActorModerator, false))
		admin.GET("/mystery-bags/:bagId/history", handlers.GetBagHistory)

		admin.GET("/review-flags", handlers.AdminListFlags)
		admin.PUT("/reviews/:type/:reviewId/moderate", handlers.AdminModerateReview)
	}
}
