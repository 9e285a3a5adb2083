package routes

import (
	"github.com/bellapacxx/bingo-engine/controllers"
	"github.com/bellapacxx/bingo-engine/game"
	"github.com/bellapacxx/bingo-engine/services"
	"github.com/gin-gonic/gin"
)

type Deps struct {
	Engine  *game.Engine
	Hub     *services.Hub
	History controllers.HistoryStore // optional
	Shops   controllers.ShopStore    // optional
	Origins []string
}

func SetupRoutes(r *gin.Engine, d Deps) {
	api := r.Group("/api")
	sessions := &controllers.SessionHandler{Engine: d.Engine}

	// ----------------------
	// Session routes
	// ----------------------
	api.POST("/sessions", sessions.Create)                        // Open a pending session
	api.GET("/sessions", sessions.List)                           // All live sessions
	api.GET("/sessions/:id", sessions.Get)                        // Session snapshot
	api.PATCH("/sessions/:id/entry-fee", sessions.UpdateEntryFee) // Change fee before any booking
	api.POST("/sessions/:id/players", sessions.RegisterPlayer)    // Book a cartela
	api.POST("/sessions/:id/start", sessions.Start)
	api.POST("/sessions/:id/pause", sessions.Pause)
	api.POST("/sessions/:id/resume", sessions.Resume)
	api.POST("/sessions/:id/call", sessions.CallNext)       // Manual call
	api.POST("/sessions/:id/check", sessions.CheckWinner)   // Verify a claim
	api.POST("/sessions/:id/accept", sessions.AcceptWinner) // Settle with the confirmed winner
	api.POST("/sessions/:id/end", sessions.End)             // Close without a winner

	// ----------------------
	// Cartela routes
	// ----------------------
	api.GET("/cartelas/:id", controllers.GetCartela)

	// ----------------------
	// Ledger routes
	// ----------------------
	ledger := &controllers.LedgerHandler{History: d.History, Shops: d.Shops}
	if d.History != nil {
		api.GET("/games", ledger.ListGames)
		api.GET("/sessions/:id/transactions", ledger.SessionTransactions)
	}
	if d.Shops != nil {
		api.GET("/shops/:id", ledger.GetShop)
		api.PUT("/shops/:id", ledger.PutShop)
	}

	if d.Hub != nil {
		r.GET("/ws/sessions/:id", controllers.SessionSocket(d.Engine, d.Hub, d.Origins))
	}
}
