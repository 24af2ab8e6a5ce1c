package controllers

import (
	"Linkup/middlewares"
)

func (s *Server) initializeRoutes() {

	authRequired := middlewares.TokenAuthMiddleware(s.DB)
	authOptional := middlewares.OptionalTokenAuthMiddleware(s.DB)

	v1 := s.Router.Group("/api/v1")
	{
		// Auth routes
		v1.POST("/login", middlewares.LoginRateLimitMiddleware(), s.Login)
		v1.POST("/password/forgot", middlewares.LoginRateLimitMiddleware(), s.ForgotPassword)
		v1.POST("/password/reset", middlewares.LoginRateLimitMiddleware(), s.ResetPassword)

		// Users routes
		v1.POST("/users", s.CreateUser)
		v1.GET("/users/search", authRequired, s.SearchUsers)
		v1.GET("/users/:id", s.GetUser)
		v1.GET("/users/:id/public", s.GetPublicUser)
		v1.PUT("/users/:id", authRequired, s.UpdateUser)
		v1.PUT("/users/:id/avatar", authRequired, s.UpdateAvatar)
		v1.DELETE("/users/:id", authRequired, s.DeleteUser)
		v1.POST("/mentions", authRequired, s.CreateMention)

		// Follow state machine
		v1.GET("/follows/requests", authRequired, s.GetFollowRequests)
		v1.GET("/follows/requests/status/:id", authRequired, s.GetFollowRequestStatus)
		v1.POST("/users/:id/request-follow", authRequired, s.RequestFollow)
		v1.POST("/users/:id/cancel-follow-request", authRequired, s.CancelFollowRequest)
		v1.POST("/users/:id/accept-follow", authRequired, s.AcceptFollowRequest)
		v1.POST("/users/:id/reject-follow", authRequired, s.RejectFollowRequest)
		v1.POST("/users/:id/follow", authRequired, s.FollowUser)
		v1.POST("/users/:id/unfollow", authRequired, s.UnfollowUser)
		v1.POST("/users/:id/remove-follower", authRequired, s.RemoveFollower)
		v1.GET("/users/:id/followers", authOptional, s.GetFollowers)
		v1.GET("/users/:id/following", authOptional, s.GetFollowing)
		v1.GET("/users/:id/relationship", authRequired, s.GetRelationship)

		// Notifications
		v1.GET("/notifications", authRequired, s.GetNotifications)
		v1.GET("/notifications/unread-count", authRequired, s.GetUnreadCount)
		v1.PATCH("/notifications/read/:id", authRequired, s.MarkNotificationRead)

		// Posts routes
		v1.POST("/posts", authRequired, s.CreatePost)
		v1.GET("/posts/feed", authRequired, s.GetFeed)
		v1.GET("/posts/:id", s.GetPost)
		v1.GET("/users/:id/posts", s.GetUserPosts)
		v1.DELETE("/posts/:id", authRequired, s.DeletePost)

		// Like routes
		v1.GET("/likes/posts/:id", s.GetLikes)
		v1.POST("/likes/posts/:id", authRequired, s.LikePost)
		v1.DELETE("/likes/posts/:id", authRequired, s.UnlikePost)

		// Comments routes
		v1.POST("/posts/:id/comments", authRequired, s.CreateComment)
		v1.GET("/posts/:id/comments", s.GetComments)
		v1.DELETE("/comments/:id", authRequired, s.DeleteComment)

		// Messaging
		v1.GET("/messages/conversations", authRequired, s.GetConversations)
		v1.POST("/messages/conversations", authRequired, s.CreateConversation)
		v1.GET("/messages/:user1/:user2", authRequired, s.GetMessages)
	}

	// Real-time delivery channel
	s.Router.GET("/ws", s.Hub.ServeWS)
}
