package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/repository"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	Health       *handlers.HealthHandler
	Moderation   *handlers.ModerationHandler
	User         *handlers.UserHandler
	Post         *handlers.PostHandler
	Scratch      *handlers.ScratchHandler
	Playlist     *handlers.PlaylistHandler
	Notification *handlers.NotificationHandler
	Album        *handlers.AlbumHandler
	Admin        *handlers.AdminHandler
}

func perIP(limit int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               limit,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
}

func Setup(app *fiber.App, cfg *config.Config, users *repository.UserStore, collector *metrics.Collector, h Handlers) {
	app.Get("/metrics", adaptor.HTTPHandler(collector.Handler()))

	api := app.Group("/api")

	// General API rate limiter: 120 req/min per IP
	api.Use(perIP(120))

	api.Get("/health", h.Health.Check)

	protected := middleware.JWTProtected(cfg)
	optional := middleware.OptionalJWT(cfg)

	// Auth: stricter limit on the credential endpoints
	auth := api.Group("/auth")
	auth.Use(perIP(10))
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)
	auth.Post("/logout", protected, h.Auth.Logout)
	auth.Delete("/account", protected, h.Auth.DeleteAccount)

	// Users
	api.Get("/users/me", protected, h.User.Me)
	api.Put("/users/me", protected, h.User.UpdateMe)
	api.Get("/users/search", h.User.Search)
	api.Get("/users/:id", optional, h.User.Get)
	api.Post("/users/:id/follow", protected, h.User.Follow)
	api.Delete("/users/:id/follow", protected, h.User.Unfollow)
	api.Get("/users/:id/follow", protected, h.User.FollowStatus)
	api.Get("/users/:id/followers", h.User.Followers)
	api.Get("/users/:id/following", h.User.Following)
	api.Get("/users/:id/posts", h.Post.ByAuthor)
	api.Get("/users/:id/posts/activity", h.Post.Activity)
	api.Get("/users/:id/scratches", h.Scratch.ByAuthor)
	api.Get("/users/:id/scratches/activity", h.Scratch.Activity)
	api.Get("/users/:id/playlists", optional, h.Playlist.ByOwner)
	api.Get("/badges", h.User.Badges)

	// Posts
	posts := api.Group("/posts")
	posts.Get("/feed", protected, h.Post.Feed)
	posts.Get("/explore", h.Post.Explore)
	posts.Get("/search", h.Post.Search)
	posts.Get("/trending-tags", h.Post.TrendingTags)
	posts.Get("/tags/:tag", h.Post.ByTag)
	posts.Post("/", protected, h.Post.Create)
	posts.Get("/:id", h.Post.Get)
	posts.Put("/:id", protected, h.Post.Edit)
	posts.Delete("/:id", protected, h.Post.Delete)
	posts.Post("/:id/restore", protected, h.Post.Restore)
	posts.Post("/:id/comments", protected, h.Post.AddComment)
	posts.Delete("/:id/comments/:commentId", protected, h.Post.DeleteComment)
	posts.Post("/:id/like", protected, h.Post.Like)
	posts.Delete("/:id/like", protected, h.Post.Unlike)

	// Scratches
	scratches := api.Group("/scratches")
	scratches.Post("/", protected, h.Scratch.Create)
	scratches.Get("/:id", h.Scratch.Get)
	scratches.Put("/:id", protected, h.Scratch.Update)
	scratches.Delete("/:id", protected, h.Scratch.Delete)
	scratches.Post("/:id/restore", protected, h.Scratch.Restore)
	scratches.Post("/:id/like", protected, h.Scratch.Like)
	scratches.Delete("/:id/like", protected, h.Scratch.Unlike)
	scratches.Get("/:id/comments", h.Scratch.Comments)
	scratches.Post("/:id/comments", protected, h.Scratch.Comment)
	api.Delete("/comments/:commentId", protected, h.Scratch.DeleteComment)

	// Playlists
	playlists := api.Group("/playlists")
	playlists.Get("/", h.Playlist.Public)
	playlists.Post("/", protected, h.Playlist.Create)
	playlists.Get("/:id", optional, h.Playlist.Get)
	playlists.Put("/:id", protected, h.Playlist.Update)
	playlists.Delete("/:id", protected, h.Playlist.Delete)
	playlists.Post("/:id/tracks", protected, h.Playlist.AddTrack)
	playlists.Delete("/:id/tracks/:entryId", protected, h.Playlist.RemoveTrack)
	playlists.Put("/:id/tracks/:entryId", protected, h.Playlist.MoveTrack)

	// Notifications
	notifications := api.Group("/notifications", protected)
	notifications.Get("/", h.Notification.List)
	notifications.Get("/unread-count", h.Notification.UnreadCount)
	notifications.Put("/read", h.Notification.MarkAllRead)
	notifications.Put("/:id/read", h.Notification.MarkRead)

	// Catalog
	api.Get("/albums/search", h.Album.Search)
	api.Get("/albums/top-rated", h.Album.TopRated)
	api.Get("/albums/:id", h.Album.Get)
	api.Get("/albums/:id/tracks", h.Album.Tracks)
	api.Get("/albums/:id/scratches", h.Scratch.AlbumFeed)
	api.Get("/albums/:id/ratings", h.Scratch.Ratings)
	api.Get("/artists/search", h.Album.SearchArtists)
	api.Get("/artists/:id/albums", h.Album.ByArtist)
	api.Get("/genres/:slug", h.Album.Genre)
	api.Get("/genres/:slug/albums", h.Album.ByGenre)
	api.Get("/tags/trending", h.Album.TrendingTags)

	// Moderation: user endpoints
	api.Post("/moderation/check", protected, h.Moderation.CheckContent)
	api.Post("/reports", protected, h.Moderation.CreateReport)
	api.Get("/blocks", protected, h.Moderation.BlockedUsers)
	api.Post("/blocks", protected, h.Moderation.BlockUser)
	api.Delete("/blocks/:id", protected, h.Moderation.UnblockUser)

	// Admin panel (token or admin account)
	admin := api.Group("/admin", optional, middleware.AdminRequired(users, cfg))
	admin.Get("/moderation/reports", h.Moderation.ListReports)
	admin.Put("/moderation/reports/:id", h.Moderation.ActionReport)
	admin.Post("/badges", h.User.CreateBadge)
	admin.Post("/badges/award", h.User.AwardBadge)
	admin.Post("/albums/import", h.Admin.ImportAlbum)
	admin.Get("/stats/catalog", h.Admin.CatalogStats)
	admin.Get("/logs", h.Admin.Logs)
}
