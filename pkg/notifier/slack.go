// Package notifier pushes study results to chat webhooks.
package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/voltspan/feederflow/pkg/history"
	"github.com/voltspan/feederflow/pkg/policy"
	"github.com/voltspan/feederflow/pkg/report"
)

// SlackClient handles Slack notifications.
type SlackClient struct {
	WebhookURL string
	Channel    string // Optional: Override default channel
}

// NewSlackClient initializes the Slack integration.
func NewSlackClient(webhookURL string, channel string) *SlackClient {
	return &SlackClient{
		WebhookURL: webhookURL,
		Channel:    channel,
	}
}

// SendStudyReport sends a summary of one solved study.
func (s *SlackClient) SendStudyReport(d report.Data) error {
	if s.WebhookURL == "" {
		return nil
	}

	payload := s.constructPayload(d)

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal slack payload: %w", err)
	}

	req, err := http.NewRequest("POST", s.WebhookURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("received non-200 status from slack: %d", resp.StatusCode)
	}

	return nil
}

// constructPayload builds the message blocks.
func (s *SlackClient) constructPayload(d report.Data) map[string]interface{} {
	critical, warning := 0, 0
	for _, v := range d.Violations {
		switch v.Severity {
		case policy.SeverityCritical:
			critical++
		case policy.SeverityWarn:
			warning++
		}
	}

	// Determine status icon.
	statusIcon := "🟢"
	if critical > 0 {
		statusIcon = "🔴"
	} else if warning > 0 {
		statusIcon = "🟡"
	}

	blocks := []map[string]interface{}{
		// Header
		{
			"type": "header",
			"text": map[string]interface{}{
				"type": "plain_text",
				"text": fmt.Sprintf("%s Feeder Study Report", statusIcon),
			},
		},
		// Context: Date & Network
		{
			"type": "context",
			"elements": []map[string]interface{}{
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Study Date:* %s | *Network:* %s @ %.1f kV", time.Now().Format("2006-01-02"), d.NetworkName, d.SourceKV),
				},
			},
		},
		// Divider
		{
			"type": "divider",
		},
		// Section: Quick Stats
		{
			"type": "section",
			"fields": []map[string]interface{}{
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Minimum Voltage:*\n%.4f pu (%s)", d.System.MinPerUnit, d.System.MinPerUnitNode),
				},
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Total Losses:*\n%.2f kW (%.2f%% efficient)", d.System.TotalLossKW, d.System.EfficiencyPercent),
				},
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Connected Load:*\n%.1f kVA", d.System.TotalLoadKVA),
				},
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("*Violations:*\n%d critical / %d warning", critical, warning),
				},
			},
		},
	}

	// Add impact alert.
	if critical > 0 {
		blocks = append(blocks, map[string]interface{}{
			"type": "section",
			"text": map[string]interface{}{
				"type": "mrkdwn",
				"text": "⚠️ *Service Limits Breached*\nBuses or segments are outside their operating band. Immediate review is recommended.",
			},
		})
	}

	payload := map[string]interface{}{
		"blocks": blocks,
	}

	if s.Channel != "" {
		payload["channel"] = s.Channel
	}

	return payload
}

// SendDriftAlert forwards ledger drift alerts between studies.
func (s *SlackClient) SendDriftAlert(drift history.DriftResult) error {
	if s.WebhookURL == "" || len(drift.Alerts) == 0 {
		return nil
	}

	payload := map[string]interface{}{
		"blocks": []map[string]interface{}{
			{
				"type": "header",
				"text": map[string]interface{}{
					"type": "plain_text",
					"text": "🔥 Feeder Drift Alert",
				},
			},
			{
				"type": "section",
				"text": map[string]interface{}{
					"type": "mrkdwn",
					"text": fmt.Sprintf("The feeder is trending away from its last study.\n*Loss velocity:* %+.2f kW per hour\n*Voltage velocity:* %+.4f pu per hour\n\n%s",
						drift.LossVelocity, drift.VoltageVelocity, strings.Join(drift.Alerts, "\n")),
				},
			},
		},
	}

	if s.Channel != "" {
		payload["channel"] = s.Channel
	}

	return s.send(payload)
}

func (s *SlackClient) send(payload map[string]interface{}) error {
	jsonPayload, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", s.WebhookURL, bytes.NewBuffer(jsonPayload))
	req.Header.Set("Content-Type", "application/json")
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}
