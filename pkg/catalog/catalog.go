// Package catalog maps error classification codes to prompt templates and
// canned fallback messages. Lookups are total: unrecognized codes resolve to
// generic defaults, so no input can fail.
package catalog

import (
	"sort"
	"strings"

	"github.com/signbridge-ai/signbridge/pkg/models"
)

const (
	// genericPrompt is substituted when an error code has no template.
	genericPrompt = "User is learning ASL sign '{sign}' and needs guidance."
	// genericFallback is served when an error code has no canned message.
	genericFallback = "Keep practicing - you're doing great!"
)

// promptInstructions wraps the substituted template into the full upstream
// prompt. The examples anchor the tone the model should match.
const promptInstructions = `

Provide a short, positive, and specific tip (1-2 sentences) to help them improve.
Be encouraging and focus on what they can do better. Keep it under 50 words.
Use encouraging language and be specific about the correction needed.

Examples:
- "Great effort! Try lifting your thumb just a bit higher - you're almost there!"
- "Nice work! Relax your fingers slightly and let them flow more naturally."
- "You're doing well! Just adjust your wrist angle slightly and you'll nail it!"
`

var errorPrompts = map[string]string{
	// Hand position errors
	"THUMB_LOW":   "User is learning ASL sign '{sign}' and their thumb is positioned too low compared to the target. The thumb should be higher for proper hand shape.",
	"THUMB_HIGH":  "User is learning ASL sign '{sign}' and their thumb is positioned too high compared to the target. The thumb needs to be lowered slightly.",
	"THUMB_ANGLE": "User is learning ASL sign '{sign}' and their thumb angle is incorrect. The thumb orientation needs adjustment.",

	// Finger positioning errors
	"FINGERS_SPREAD":   "User is learning ASL sign '{sign}' and their fingers are too spread apart. The fingers should be closer together for this sign.",
	"FINGERS_CLOSED":   "User is learning ASL sign '{sign}' and their fingers are too closed together. The fingers need more separation.",
	"FINGERS_CURVED":   "User is learning ASL sign '{sign}' and their fingers are too curved. The fingers should be straighter.",
	"FINGERS_STRAIGHT": "User is learning ASL sign '{sign}' and their fingers are too straight. The fingers should have more natural curve.",

	// Hand orientation and angle errors
	"HAND_ANGLE":    "User is learning ASL sign '{sign}' and their hand angle is incorrect. The hand orientation needs to be adjusted.",
	"HAND_ROTATION": "User is learning ASL sign '{sign}' and their hand rotation is incorrect. The palm direction should match the target.",
	"WRIST_BEND":    "User is learning ASL sign '{sign}' and their wrist is bent incorrectly. The wrist should be more neutral.",
	"WRIST_ANGLE":   "User is learning ASL sign '{sign}' and their wrist angle needs adjustment for proper form.",

	// Arm and elbow positioning
	"ARM_POSITION": "User is learning ASL sign '{sign}' and their arm position needs adjustment. The arm should be repositioned.",
	"ELBOW_WIDE":   "User is learning ASL sign '{sign}' and their elbow angle is too wide. The elbow should be closer to the body.",
	"ELBOW_NARROW": "User is learning ASL sign '{sign}' and their elbow angle is too narrow. The elbow needs more space from the body.",
	"ELBOW_HEIGHT": "User is learning ASL sign '{sign}' and their elbow height is incorrect. The elbow position should be adjusted vertically.",

	// Movement and timing errors
	"TIMING_FAST":         "User is learning ASL sign '{sign}' and their movement is too fast. The sign should be performed more slowly.",
	"TIMING_SLOW":         "User is learning ASL sign '{sign}' and their movement is too slow. The sign can be performed more quickly.",
	"MOVEMENT_JERKY":      "User is learning ASL sign '{sign}' and their movement is too jerky. The motion should be smoother.",
	"MOVEMENT_INCOMPLETE": "User is learning ASL sign '{sign}' and their movement is incomplete. The full range of motion is needed.",

	// Overall form errors
	"GENERAL_FORM":     "User is learning ASL sign '{sign}' and their overall form needs improvement. Multiple aspects need adjustment.",
	"HAND_SHAPE":       "User is learning ASL sign '{sign}' and their hand shape is not quite right. The finger configuration needs refinement.",
	"SPATIAL_POSITION": "User is learning ASL sign '{sign}' and their hand is in the wrong spatial location. The position relative to the body needs adjustment.",
}

var fallbackMessages = map[string]string{
	// Hand position fallbacks
	"THUMB_LOW":   "Great effort! Try lifting your thumb just a bit higher - you're almost there!",
	"THUMB_HIGH":  "Nice work! Lower your thumb slightly for better form.",
	"THUMB_ANGLE": "Good job! Adjust your thumb angle to match the target position.",

	// Finger positioning fallbacks
	"FINGERS_SPREAD":   "Good job! Bring your fingers a little closer together.",
	"FINGERS_CLOSED":   "You're doing well! Spread your fingers out just a touch more.",
	"FINGERS_CURVED":   "Nice effort! Try straightening your fingers a bit more.",
	"FINGERS_STRAIGHT": "Great work! Let your fingers curve more naturally.",

	// Hand orientation fallbacks
	"HAND_ANGLE":    "Almost perfect! Adjust your hand angle slightly.",
	"HAND_ROTATION": "Keep it up! Rotate your hand slightly to match the target position.",
	"WRIST_BEND":    "Nice effort! Keep your wrist more relaxed and natural.",
	"WRIST_ANGLE":   "Good progress! Adjust your wrist angle for better form.",

	// Arm and elbow fallbacks
	"ARM_POSITION": "Great start! Try adjusting your arm position a bit.",
	"ELBOW_WIDE":   "Good progress! Bring your elbow in a little closer to your body.",
	"ELBOW_NARROW": "You're getting there! Open up your elbow angle just a bit more.",
	"ELBOW_HEIGHT": "Nice work! Adjust your elbow height to match the target.",

	// Movement and timing fallbacks
	"TIMING_FAST":         "Excellent effort! Try slowing down your movement just a little.",
	"TIMING_SLOW":         "Nice work! You can speed up your movement slightly.",
	"MOVEMENT_JERKY":      "Good job! Try to make your movement smoother and more fluid.",
	"MOVEMENT_INCOMPLETE": "Great start! Complete the full range of motion for this sign.",

	// Overall form fallbacks
	"GENERAL_FORM":     "You're making progress! Keep practicing and you'll get it!",
	"HAND_SHAPE":       "Nice effort! Refine your hand shape to match the target.",
	"SPATIAL_POSITION": "Good work! Adjust your hand position relative to your body.",
}

// Prompt builds the full upstream prompt for an error code, substituting the
// sign name into the code's template (or the generic one for unknown codes).
func Prompt(errorCode, sign string) string {
	tmpl, ok := errorPrompts[errorCode]
	if !ok {
		tmpl = genericPrompt
	}
	base := strings.ReplaceAll(tmpl, "{sign}", sign)
	return "You are an encouraging ASL instructor. " + base + promptInstructions
}

// Fallback returns the canned encouragement message for an error code, or
// the generic default for unknown codes.
func Fallback(errorCode string) string {
	if msg, ok := fallbackMessages[errorCode]; ok {
		return msg
	}
	return genericFallback
}

// Known reports whether the error code has a dedicated catalog entry.
func Known(errorCode string) bool {
	_, ok := errorPrompts[errorCode]
	return ok
}

// Codes returns all cataloged error codes in sorted order.
func Codes() []string {
	codes := make([]string, 0, len(errorPrompts))
	for code := range errorPrompts {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Mapping returns copies of both raw tables for debugging and introspection.
func Mapping() models.ErrorCodeMapping {
	prompts := make(map[string]string, len(errorPrompts))
	for k, v := range errorPrompts {
		prompts[k] = v
	}
	fallbacks := make(map[string]string, len(fallbackMessages))
	for k, v := range fallbackMessages {
		fallbacks[k] = v
	}
	return models.ErrorCodeMapping{Prompts: prompts, Fallbacks: fallbacks}
}
