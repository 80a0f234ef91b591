// File: internal/agent/prompt.go
package agent

import (
	"fmt"
	"strings"
	"time"
)

const (
	// walkRange bounds "Walk to" targets around the current position.
	walkRange = 50
	// recentInteractionSecs is how long a player interaction stays in the prompt.
	recentInteractionSecs = 300
	// initialActionSentinel is the last action recorded before any decision.
	initialActionSentinel = "Initialized"
	defaultExamplePlayer  = "Steve"
)

// PromptBuilder renders observations into LLM prompts for one named character.
type PromptBuilder struct {
	name string
	now  func() time.Time
}

// NewPromptBuilder creates a builder for the character called name.
func NewPromptBuilder(name string) *PromptBuilder {
	return &PromptBuilder{name: name, now: time.Now}
}

// SystemRole is the one line persona statement.
func (p *PromptBuilder) SystemRole() string {
	return fmt.Sprintf("You are %s, a friendly AI character in Minecraft.", p.name)
}

// BuildPrompt renders the full decision prompt.
func (p *PromptBuilder) BuildPrompt(obs Observation) string {
	var sb strings.Builder

	sb.WriteString(p.SystemRole() + "\n")
	sb.WriteString("You are proactive, curious, and avoid standing still.\n")
	sb.WriteString("You speak naturally, like a player in the game.\n")
	sb.WriteString("You make decisions based on what's happening around you.\n")
	sb.WriteString("If players are nearby, prefer to engage/follow them. If no players, explore new ground.\n")
	sb.WriteString("Do NOT idle repeatedly. Choose a meaningful action every tick.\n\n")

	sb.WriteString("CURRENT SITUATION:\n")
	fmt.Fprintf(&sb, "- Location: X=%.1f, Y=%.1f, Z=%.1f\n", obs.X, obs.Y, obs.Z)
	fmt.Fprintf(&sb, "- Nearby players: %s\n", formatPlayers(obs.NearbyPlayers))
	dayNight := "night"
	if obs.IsDayTime() {
		dayNight = "day"
	}
	fmt.Fprintf(&sb, "- Time: %s (%s)\n", obs.TimeOfDay(), dayNight)

	if obs.LastInteractionPlayer != "" {
		if ago := obs.SecondsSinceInteraction(p.now()); ago <= recentInteractionSecs {
			fmt.Fprintf(&sb, "- Last interaction: %s (%d seconds ago)\n", obs.LastInteractionPlayer, ago)
		}
	}
	if obs.LastAction != "" && obs.LastAction != initialActionSentinel {
		fmt.Fprintf(&sb, "- Last action: %s\n", obs.LastAction)
	}
	sb.WriteString("\n")

	x, z := int(obs.X), int(obs.Z)
	ax, az := x+15, z-20
	bx, bz := x-10, z+25
	player := defaultExamplePlayer
	if first, ok := obs.FirstPlayer(); ok {
		player = first
	}

	sb.WriteString("AVAILABLE ACTIONS:\n")
	fmt.Fprintf(&sb, "1. \"Follow [player]\" - trail a nearby player (e.g., \"Follow %s\")\n", player)
	fmt.Fprintf(&sb, "2. \"Look at [player]\" - face and observe (e.g., \"Look at %s\")\n", player)
	sb.WriteString("3. \"Attack [entity]\" - attack a mob (e.g., \"Attack zombie\")\n")
	sb.WriteString("4. \"Mine [block]\" - break a nearby block (e.g., \"Mine stone\", \"Mine tree\")\n")
	fmt.Fprintf(&sb, "5. \"Walk to X Z\" - explore NEARBY locations only! From your current position (%d %d), you could walk to (%d %d) or (%d %d)\n",
		x, z, ax, az, bx, bz)
	sb.WriteString("6. \"Say [message]\" - chat (e.g., \"Say Hello there!\")\n")
	sb.WriteString("7. \"Wander\" - move randomly nearby\n")
	sb.WriteString("8. \"Idle\" - only if you truly have nothing to do (avoid)\n")

	fmt.Fprintf(&sb, "\nCRITICAL: When using 'Walk to X Z', coordinates MUST be within %d blocks!\n", walkRange)
	fmt.Fprintf(&sb, "Your current position: (%d, %d)\n", x, z)
	fmt.Fprintf(&sb, "Valid range: X between %d and %d, Z between %d and %d\n\n",
		x-walkRange, x+walkRange, z-walkRange, z+walkRange)

	sb.WriteString("What should you do RIGHT NOW?\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- If players are nearby, consider following them, talking to them, or showing off by mining/building.\n")
	sb.WriteString("- If you see trees or stone, consider mining them to gather resources.\n")
	sb.WriteString("- If mobs are nearby, consider attacking them.\n")
	sb.WriteString("- If no players nearby, explore, mine resources, or wander.\n")
	sb.WriteString("- Do NOT return Idle repeatedly.\n")
	sb.WriteString("- Be proactive like a real Minecraft player!\n")
	sb.WriteString("- Reply with ONLY ONE action, nothing else.\n\n")

	sb.WriteString("Example responses:\n")
	sb.WriteString("- \"Mine tree\" (if you see trees nearby)\n")
	sb.WriteString("- \"Mine stone\" (if you see stone nearby)\n")
	sb.WriteString("- \"Attack zombie\" (if hostile mob nearby)\n")
	fmt.Fprintf(&sb, "- \"Follow %s\"\n", player)
	fmt.Fprintf(&sb, "- \"Look at %s\"\n", player)
	fmt.Fprintf(&sb, "- \"Walk to %d %d\" (nearby)\n", ax, az)
	sb.WriteString("- \"Say Hi there!\"\n")
	sb.WriteString("- \"Wander\"\n")

	return sb.String()
}

// BuildSimplePrompt renders a short prompt for faster replies.
func (p *PromptBuilder) BuildSimplePrompt(obs Observation) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s in Minecraft. ", p.name)
	if obs.IsPlayerNearby() {
		fmt.Fprintf(&sb, "Players nearby: %s. ", formatPlayers(obs.NearbyPlayers))
	} else {
		sb.WriteString("No players nearby. ")
	}
	sb.WriteString(`What do you do? Reply with ONE action: "Walk to X Z", "Follow [player]", "Idle", "Wander", or "Say [message]"`)
	return sb.String()
}

func formatPlayers(players []string) string {
	if len(players) == 0 {
		return "[none]"
	}
	return "[" + strings.Join(players, ", ") + "]"
}
