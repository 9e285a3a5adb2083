package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/bellapacxx/bingo-engine/game"
	"github.com/bellapacxx/bingo-engine/services"
	"github.com/gin-gonic/gin"
)

// GetCartela returns a cartela in column form and as rows.
func GetCartela(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, fmt.Errorf("%w: %q", game.ErrInvalidCartela, c.Param("id")))
		return
	}
	card, err := services.Card(id)
	if err != nil {
		respondError(c, err)
		return
	}
	g, _ := game.Generate(id)
	c.JSON(http.StatusOK, gin.H{"card": card, "rows": g.Rows()})
}
