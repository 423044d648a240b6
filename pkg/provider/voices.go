package provider

import "slices"

// DefaultVoice is used when a speech request names no voice.
const DefaultVoice = "Zephyr"

// Voices lists the prebuilt speech voices.
var Voices = []string{
	"Achernar", "Achird", "Algenib", "Algieba", "Alnilam", "Aoede", "Autonoe",
	"Callirrhoe", "Charon", "Despina", "Enceladus", "Erinome", "Fenrir", "Gacrux",
	"Iapetus", "Kore", "Laomedeia", "Leda", "Orus", "Puck", "Pulcherrima",
	"Rasalgethi", "Sadachbia", "Sadaltager", "Schedar", "Sulafat", "Umbriel",
	"Vindemiatrix", "Zephyr", "Zubenelgenubi",
}

// IsVoice reports whether name is a prebuilt voice.
func IsVoice(name string) bool {
	return slices.Contains(Voices, name)
}
