package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/haivivi/mediaforge/pkg/audio/wav"
	"github.com/haivivi/mediaforge/pkg/cli"
	"github.com/haivivi/mediaforge/pkg/encoding"
	"github.com/haivivi/mediaforge/pkg/provider"
	"github.com/haivivi/mediaforge/pkg/storage"
)

var speechCmd = &cobra.Command{
	Use:   "speech",
	Short: "Speech synthesis",
}

var (
	speechVoice      string
	speechSampleRate int
	speechScene      sceneRef
)

var speechSynthesizeCmd = &cobra.Command{
	Use:   "synthesize [text...]",
	Short: "Synthesize a voiceover",
	Long: `Synthesize speech with a prebuilt voice.

Raw PCM from the model is wrapped in a WAV container; other formats are
written as received. With --project and --scene the take is added to the
scene's voiceover history.

Examples:
  mediaforge speech synthesize "Город спит." --voice Kore -o take.wav
  mediaforge speech synthesize -f narration.txt -o take.wav --sample-rate 16000
  mediaforge speech synthesize --project P --scene 1 -o take.wav`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getSettings()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		text := ""
		if len(args) > 0 || inputFile != "" {
			if text, err = readText(args); err != nil {
				return err
			}
		}
		if text == "" && speechScene.set() {
			ws, closeWS, err := openWorkspace(s)
			if err != nil {
				return err
			}
			scene, err := findScene(ctx, ws, speechScene)
			closeWS()
			if err != nil {
				return err
			}
			text = scene.Script
		}
		if text == "" {
			return fmt.Errorf("text is required, pass it as arguments, use -f, or point at a scene")
		}

		voice := s.Voice(speechVoice)
		if !provider.IsVoice(voice) {
			return fmt.Errorf("unknown voice %q, see 'mediaforge speech voices'", voice)
		}

		p, err := s.Provider()
		if err != nil {
			return err
		}
		var (
			mimeType  string
			fragments [][]byte
		)
		err = p.SynthesizeSpeech(ctx, text, voice, func(c provider.AudioChunk) {
			if mimeType == "" {
				mimeType = c.MIMEType
			}
			fragments = append(fragments, c.Data)
		})
		if err != nil {
			return fmt.Errorf("synthesize speech: %w", err)
		}

		var opts []wav.Option
		if speechSampleRate > 0 {
			opts = append(opts, wav.WithSampleRate(speechSampleRate))
		}
		audio, audioType, err := wav.Assemble(mimeType, fragments, opts...)
		if err != nil {
			return err
		}
		slog.Debug("speech assembled", "source", mimeType, "fragments", len(fragments), "bytes", len(audio))

		result := map[string]any{
			"voice":     voice,
			"mime_type": audioType,
			"size":      cli.FormatBytes(len(audio)),
		}
		takeURL := ""
		if outputFile != "" {
			if err := cli.OutputBytes(audio, outputFile); err != nil {
				return err
			}
			result["output_file"] = outputFile
			takeURL = outputFile
		}
		fs, err := s.ExportStore()
		if err != nil {
			return err
		}
		if loc := exportArtifact(ctx, fs, storage.KindAudio, audioType, audio); loc != "" {
			result["location"] = loc
			takeURL = loc
		}
		if speechScene.set() {
			if takeURL == "" {
				takeURL = encoding.DataURI(audioType, audio)
			}
			ws, closeWS, err := openWorkspace(s)
			if err != nil {
				return err
			}
			defer closeWS()
			take, err := ws.AddVoiceover(ctx, speechScene.project, speechScene.scene, takeURL, voice)
			if err != nil {
				return err
			}
			result["take"] = take.ID
		}
		if outputFile == "" && result["location"] == nil && !speechScene.set() {
			cli.PrintWarning("No -o given and no export configured; the audio was discarded")
		}
		return writeResult(result, "", nil)
	},
}

var speechVoicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List prebuilt voices",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getSettings()
		if err != nil {
			return err
		}
		def := s.Voice("")
		return outputResult(provider.Voices, func(any) string {
			rows := make([][]string, len(provider.Voices))
			for i, v := range provider.Voices {
				mark := ""
				if v == def {
					mark = "*"
				}
				rows[i] = []string{mark, v}
			}
			return styles.Table([]string{"", "VOICE"}, rows, 0)
		})
	},
}

func init() {
	speechSynthesizeCmd.Flags().StringVar(&speechVoice, "voice", "", "prebuilt voice (default "+provider.DefaultVoice+")")
	speechSynthesizeCmd.Flags().IntVar(&speechSampleRate, "sample-rate", 0, "resample raw PCM to this rate before wrapping")
	speechScene.bind(speechSynthesizeCmd)
	speechCmd.AddCommand(speechSynthesizeCmd)
	speechCmd.AddCommand(speechVoicesCmd)
}
