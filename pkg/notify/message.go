package notify

import (
	"fmt"

	"github.com/loopgate/loopgate/pkg/pipeline"
	goslack "github.com/slack-go/slack"
)

const maxBlockTextLength = 2900

var decisionEmoji = map[bool]string{
	true:  ":white_check_mark:",
	false: ":x:",
}

func executionURL(dashboardURL, executionID string) string {
	return fmt.Sprintf("%s/executions/%s", dashboardURL, executionID)
}

// BuildStartedMessage creates Block Kit blocks for a loop-execution start
// notification.
func BuildStartedMessage(executionID, goal, dashboardURL string) []goslack.Block {
	url := executionURL(dashboardURL, executionID)
	text := fmt.Sprintf(":arrows_counterclockwise: *Loop started* for: %s\n<%s|View in Dashboard>", goal, url)
	return []goslack.Block{
		goslack.NewSectionBlock(goslack.NewTextBlockObject(goslack.MarkdownType, text, false, false), nil, nil),
	}
}

// BuildCompletedMessage creates Block Kit blocks for a terminal loop
// notification, summarizing the Gate Decision that ended it.
func BuildCompletedMessage(result *pipeline.LoopResult, dashboardURL string) []goslack.Block {
	emoji := decisionEmoji[result.Success]
	headerText := fmt.Sprintf("%s *Loop %s*", emoji, terminalLabel(result))

	var blocks []goslack.Block
	blocks = append(blocks, goslack.NewSectionBlock(
		goslack.NewTextBlockObject(goslack.MarkdownType, headerText, false, false), nil, nil,
	))

	if result.Decision != nil {
		detail := fmt.Sprintf("*Reason:* %s\n*Risk:* %s (score %.2f)\n*Quality:* %.1f/10",
			result.Decision.Reason, result.Decision.Risk.Level, result.Decision.Risk.Score, result.Decision.Review.QualityScore)
		blocks = append(blocks, goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, truncateForSlack(detail), false, false), nil, nil,
		))
	} else if result.Error != "" {
		blocks = append(blocks, goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, "*Error:* "+truncateForSlack(result.Error), false, false), nil, nil,
		))
	}

	url := executionURL(dashboardURL, result.ExecutionID)
	btn := goslack.NewButtonBlockElement("", "", goslack.NewTextBlockObject(goslack.PlainTextType, "View Execution", false, false))
	btn.URL = url
	blocks = append(blocks, goslack.NewActionBlock("", btn))

	return blocks
}

func terminalLabel(result *pipeline.LoopResult) string {
	if result.Success {
		return "approved"
	}
	if result.Error == "timeout" {
		return "timed out"
	}
	return "blocked"
}

func truncateForSlack(text string) string {
	if len(text) <= maxBlockTextLength {
		return text
	}
	return text[:maxBlockTextLength] + "\n\n_... (truncated — view full result in dashboard)_"
}
