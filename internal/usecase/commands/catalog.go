package commands

// CommandDescriptor expone los metadatos de un comando interno para !help y la API.
type CommandDescriptor struct {
	Name        string `json:"name"`
	Usage       string `json:"usage"`
	Description string `json:"description"`
}

var descriptions = map[string]string{
	"ping":     "check that the bot is alive",
	"help":     "show this reference",
	"alias":    "create a shortcut that runs another command or says some text",
	"delalias": "delete an alias",
	"aliases":  "list every alias",
	"stats":    "count stored links and sounds",
	"link":     "post a random link seen in chat",
	"sounds":   "list every sound clip",
	"get":      "cut a clip from a video (start and length in seconds) and play it",
	"play":     "play a sound by name, or a random one",
	"say":      "speak some text in the voice channel",
}

// Catalog describe los comandos registrados, en orden de registro.
func (r *Router) Catalog() []CommandDescriptor {
	out := make([]CommandDescriptor, 0, len(r.order))
	for _, cmd := range r.order {
		out = append(out, CommandDescriptor{
			Name:        cmd.Name(),
			Usage:       r.prefix + cmd.Usage(),
			Description: descriptions[cmd.Name()],
		})
	}
	return out
}
