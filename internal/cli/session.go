package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Drive a live game session over the websocket protocol",
	}

	cmd.AddCommand(newSessionCreateCmd())
	cmd.AddCommand(newSessionJoinCmd())

	return cmd
}

func newSessionCreateCmd() *cobra.Command {
	var timeLimit int

	cmd := &cobra.Command{
		Use:   "create <player-name>",
		Short: "Create a room and watch the message stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(map[string]any{
				"type":       "create_room",
				"playerName": args[0],
				"timeLimit":  timeLimit,
			})
		},
	}

	cmd.Flags().IntVar(&timeLimit, "time-limit", 0, "Time limit in minutes (0 for server default)")

	return cmd
}

func newSessionJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <room-code> <player-name>",
		Short: "Join a room and watch the message stream",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(map[string]any{
				"type":       "join_room",
				"roomCode":   args[0],
				"playerName": args[1],
			})
		},
	}
}

// runSession dials the websocket endpoint, sends the opening message, and
// prints every server message until interrupted.
func runSession(opening map[string]any) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(client.WebsocketURL(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.WriteJSON(opening); err != nil {
		return fmt.Errorf("failed to send: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	msgCh := make(chan []byte)
	errCh := make(chan error, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			msgCh <- data
		}
	}()

	for {
		select {
		case data := <-msgCh:
			printServerMessage(data)
		case err := <-errCh:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		case <-sigCh:
			fmt.Println("\nDisconnecting")
			return nil
		}
	}
}

func printServerMessage(data []byte) {
	if cfg.Output == "json" {
		fmt.Println(string(data))
		return
	}

	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		fmt.Println(string(data))
		return
	}
	msgType, _ := msg["type"].(string)
	delete(msg, "type")

	pretty, _ := json.Marshal(msg)
	fmt.Printf("[%s] %s %s\n", time.Now().Format("15:04:05"), msgType, string(pretty))
}
