package commands

import (
	"github.com/spf13/cobra"

	"github.com/haivivi/mediaforge/pkg/agent"
	"github.com/haivivi/mediaforge/pkg/console"
)

var (
	serveAddr       string
	serveSampleRate int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the browser console API",
	Long: `Serve the console API over HTTP and the agent chat over WebSocket.

Routes:
  GET    /api/items              process items (?archived=true for all)
  POST   /api/items              add an item
  DELETE /api/items/{id}         delete an item
  POST   /api/items/archive      {ids, archived}
  GET    /api/scenarios          derived scenarios
  POST   /api/scenarios          {title, content}
  GET    /api/histories          stored chat histories
  DELETE /api/histories          clear every conversation
  GET    /api/agents             agent roster
  GET    /api/voices             prebuilt voices
  POST   /api/structure          {text}
  POST   /api/image/edit         {image, instruction}
  POST   /api/video              {image, instruction}
  POST   /api/speech             {text, voice} -> audio
  GET    /ws/chat                {agent_id, text} -> delta frames, then done

Examples:
  mediaforge serve
  mediaforge -c prod serve --addr :8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getSettings()
		if err != nil {
			return err
		}
		p, err := s.Provider()
		if err != nil {
			return err
		}
		roster, err := s.Roster()
		if err != nil {
			return err
		}
		export, err := s.ExportStore()
		if err != nil {
			return err
		}
		st := s.StoreClient()

		srv := console.New(console.Options{
			Provider:     p,
			Store:        st,
			Room:         agent.NewRoom(p, st, roster),
			Export:       export,
			SampleRate:   serveSampleRate,
			DefaultVoice: s.Voice(""),
		})

		ctx, cancel := signalContext()
		defer cancel()
		return srv.ListenAndServe(ctx, serveAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8787", "listen address")
	serveCmd.Flags().IntVar(&serveSampleRate, "sample-rate", 0, "resample raw PCM speech to this rate")
}
