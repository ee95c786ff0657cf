package voice

import (
	"fmt"
	"strings"
)

// AssistantSettings selects the voice agent's model and voice
type AssistantSettings struct {
	ModelProvider string
	Model         string
	VoiceProvider string
	VoiceID       string
}

// Assistant is the configuration the browser starts a voice call with
type Assistant struct {
	Model AssistantModel `json:"model"`
	Voice AssistantVoice `json:"voice"`
}

type AssistantModel struct {
	Provider  string           `json:"provider"`
	Model     string           `json:"model"`
	Messages  []ChatMessage    `json:"messages"`
	Functions []FunctionSchema `json:"functions"`
}

type AssistantVoice struct {
	Provider string `json:"provider"`
	VoiceID  string `json:"voiceId"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FunctionSchema declares one intent to the agent's model
type FunctionSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
}

type ParameterSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Functions returns the schemas of every intent the router handles
func Functions() []FunctionSchema {
	str := func(desc string) Property { return Property{Type: "string", Description: desc} }
	return []FunctionSchema{
		{
			Name:        IntentZoomToNode,
			Description: "Zoom the camera to a specific node by its ID",
			Parameters: ParameterSchema{
				Type:       "object",
				Properties: map[string]Property{"nodeId": str(`The ID of the node to zoom to (e.g., "cse101", "pdf_12")`)},
				Required:   []string{"nodeId"},
			},
		},
		{
			Name:        IntentSearchNode,
			Description: "Search for a node by name or partial match",
			Parameters: ParameterSchema{
				Type:       "object",
				Properties: map[string]Property{"query": str(`Search query (e.g., "CSE 101", "Linear Equations")`)},
				Required:   []string{"query"},
			},
		},
		{
			Name:        IntentFocusOnCourse,
			Description: "Focus the camera on a specific course",
			Parameters: ParameterSchema{
				Type:       "object",
				Properties: map[string]Property{"courseName": str(`The name of the course (e.g., "CSE 101", "MATH 18")`)},
				Required:   []string{"courseName"},
			},
		},
		{
			Name:        IntentResetView,
			Description: "Reset the camera to the default view showing the entire graph",
			Parameters:  ParameterSchema{Type: "object", Properties: map[string]Property{}},
		},
		{
			Name:        IntentGetCourseInfo,
			Description: "Get information about a specific course including its modules",
			Parameters: ParameterSchema{
				Type:       "object",
				Properties: map[string]Property{"courseName": str("The name of the course")},
				Required:   []string{"courseName"},
			},
		},
	}
}

// SystemPrompt builds the agent's instructions around the available courses
func SystemPrompt(courses []string) string {
	available := "none yet"
	if len(courses) > 0 {
		available = strings.Join(courses, ", ")
	}

	var b strings.Builder
	b.WriteString("You are a helpful voice assistant for a graph visualization app for course materials. ")
	b.WriteString("You help users navigate their course graph by zooming to specific nodes, courses, modules, assignments and documents.\n\n")
	fmt.Fprintf(&b, "Available courses: %s\n\n", available)
	b.WriteString("You have access to these functions to control the graph:\n")
	for _, f := range Functions() {
		fmt.Fprintf(&b, "- %s(%s): %s\n", f.Name, strings.Join(f.Parameters.Required, ", "), f.Description)
	}
	b.WriteString("\nBe conversational and helpful. When the user asks about a course or document, use the functions to navigate the graph for them.")
	return b.String()
}

// BuildAssistant assembles the call configuration for a graph with the given courses
func BuildAssistant(settings AssistantSettings, courses []string) Assistant {
	return Assistant{
		Model: AssistantModel{
			Provider:  settings.ModelProvider,
			Model:     settings.Model,
			Messages:  []ChatMessage{{Role: "system", Content: SystemPrompt(courses)}},
			Functions: Functions(),
		},
		Voice: AssistantVoice{
			Provider: settings.VoiceProvider,
			VoiceID:  settings.VoiceID,
		},
	}
}
