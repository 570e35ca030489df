package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/dma-labs/biomontage/pkg/demoreader"
	"github.com/dma-labs/biomontage/pkg/sigcache"
	"github.com/dma-labs/biomontage/pkg/worker"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a reader worker over WebSocket",
	Long:  "Runs a reader worker (currently the synthetic demo reader) and accepts montage-worker commissions over a /ws WebSocket endpoint, mirroring the teacher's runServer(port) shape.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "TCP port to listen on")
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func runServe(cmd *cobra.Command, args []string) error {
	durationSeconds := 60.0
	reader := demoreader.New([]demoreader.ChannelSpec{
		{Name: "ch0", FrequencyHz: 10, AmplitudeUV: 50},
		{Name: "ch1", FrequencyHz: 6, AmplitudeUV: 30, PhaseRad: 0.5},
	}, 256, durationSeconds, 1, logger)
	if err := reader.SetupCacheWithInput(); err != nil {
		return err
	}
	part := reader.GenerateSignals(0, durationSeconds)
	if err := reader.Cache().InsertSignals(context.Background(), sigcache.Part{
		Start: part.Start, End: part.End, Signals: part.Signals,
	}); err != nil {
		return fmt.Errorf("seed input cache: %w", err)
	}

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error().Err(err).Msg("websocket upgrade failed")
			return
		}
		logger.Info().Str("remote", r.RemoteAddr).Msg("reader worker client connected")

		transport := worker.NewWSTransport(conn)
		dispatcher := worker.NewDispatcher(transport)
		worker.NewReaderWorker(reader.Reader, dispatcher)
	})

	logger.Info().Int("port", servePort).Msg("reader worker listening")
	return http.ListenAndServe(fmt.Sprintf(":%d", servePort), nil)
}
