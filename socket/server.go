package socket

import (
	"log"

	socketio "github.com/googollee/go-socket.io"

	"mindclone_server/services"
)

// NewSocketServer initializes and returns a new Socket.IO server. Clients
// authenticate with a JWT in the "join" event and are placed in their own
// user room; match notifications are pushed there.
func NewSocketServer(authService *services.AuthService) *socketio.Server {
	server := socketio.NewServer(nil)

	server.OnConnect("/", func(c socketio.Conn) error {
		log.Println("✅ Socket connected:", c.ID())
		return nil
	})

	server.OnEvent("/", "join", func(c socketio.Conn, token string) {
		userID, err := authService.VerifyToken(token)
		if err != nil {
			log.Printf("❌ Rejected join from %s: %v", c.ID(), err)
			return
		}
		c.Join("user:" + userID)
		log.Printf("👥 Socket %s joined room for user %s", c.ID(), userID)
	})

	server.OnDisconnect("/", func(c socketio.Conn, reason string) {
		log.Println("❌ Socket disconnected:", c.ID(), reason)
	})

	server.OnError("/", func(c socketio.Conn, err error) {
		log.Printf("⚠️ Socket error: %v", err)
	})

	return server
}
