package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"nike_shop_backend/internal/database"
	"nike_shop_backend/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Autoriser toutes les origines (à ajuster en production)
		return true
	},
}

// OrderFeed pousse les nouvelles commandes en temps réel au tableau de
// bord admin. Les commandes arrivent via le canal Redis "orders:new",
// publié par le webhook de paiement.
func OrderFeed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	ctx := context.Background()

	pubsub := database.Redis.Subscribe(ctx, "orders:new")
	defer pubsub.Close()

	ch := pubsub.Channel()

	conn.WriteJSON(map[string]interface{}{
		"type":    "connected",
		"message": "Flux commandes activé",
	})

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var order models.Order
			if err := json.Unmarshal([]byte(msg.Payload), &order); err != nil {
				log.Printf("⚠️ Flux commandes: payload illisible: %v", err)
				continue
			}

			err := conn.WriteJSON(map[string]interface{}{
				"type":  "new_order",
				"order": order,
			})
			if err != nil {
				log.Printf("❌ Erreur envoi WebSocket: %v", err)
				return
			}
		case <-time.After(30 * time.Second):
			// Ping pour garder la connexion active
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
