package realtime

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/vetra-app/vetra/internal/events"
	"github.com/vetra-app/vetra/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades GET /ws/:class?token=... into a registered realtime
// connection. The class is declared by the client and checked against the
// verified token; the first message on the socket is the connected event.
func ServeWS(hub *Hub) echo.HandlerFunc {
	return func(c echo.Context) error {
		class := c.Param("class")
		if !ValidClass(class) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid client type"})
		}

		claims, err := utils.ParseToken(c.QueryParam("token"))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
		}

		var identity int64
		switch class {
		case ClassUser:
			identity = claims.UserID
		case ClassShop:
			identity = claims.ShopID
		case ClassAdmin:
			if claims.Role != "admin" {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access only"})
			}
			identity = claims.UserID
		}
		if identity == 0 {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token payload"})
		}

		ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}

		client := NewClient(hub, ws, class, identity)
		hub.Register(client)
		client.sendEvent(events.Connected(class, identity))

		go client.WriteLoop()
		client.ReadLoop()
		return nil
	}
}

// StatsHandler exposes live connection counts for monitoring.
func StatsHandler(hub *Hub) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, hub.Stats())
	}
}
