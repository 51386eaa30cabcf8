package history

import (
	"fmt"
	"time"
)

// DriftResult holds the derived signals from the history window.
type DriftResult struct {
	CurrentLossKW    float64 // kW
	LossVelocity     float64 // kW per HOUR (the rate of change)
	LossAcceleration float64 // kW per HOUR^2 (the rate of acceleration)
	VoltageVelocity  float64 // pu per HOUR (negative = sagging)

	ProjectedLossKW24h float64 // Forecasted losses in 24 hours

	// TimeToLimit is how long until the minimum bus voltage crosses
	// limitPU at the current sag rate. -1 means no crossing predicted.
	TimeToLimit time.Duration

	Pattern string
	Alerts  []string
}

// Analyze processes the ledger history and returns signal derivatives.
// limitPU: the service-voltage floor (e.g. 0.95). If 0, the crossing
// forecast is skipped.
func Analyze(history []Snapshot, limitPU float64) DriftResult {
	if len(history) < 2 {
		return DriftResult{TimeToLimit: -1}
	}

	current := history[len(history)-1]
	prev := history[len(history)-2]

	// 1. Calculate Time Delta (Hours)
	timeDelta := float64(current.Timestamp-prev.Timestamp) / 3600.0
	if timeDelta == 0 {
		return DriftResult{CurrentLossKW: current.TotalLossKW, TimeToLimit: -1}
	}

	// 2. Calculate Velocity (First Derivative): change in losses per hour
	lossDelta := current.TotalLossKW - prev.TotalLossKW
	velocity := lossDelta / timeDelta

	puVelocity := (current.MinPerUnit - prev.MinPerUnit) / timeDelta

	// 3. Calculate Acceleration (Second Derivative)
	acceleration := 0.0
	if len(history) >= 3 {
		prev2 := history[len(history)-3]
		timeDelta2 := float64(prev.Timestamp-prev2.Timestamp) / 3600.0
		if timeDelta2 > 0 {
			prevVelocity := (prev.TotalLossKW - prev2.TotalLossKW) / timeDelta2
			acceleration = (velocity - prevVelocity) / timeDelta
		}
	}

	// 4. Project Future Losses (24h)
	projected := current.TotalLossKW + (velocity * 24) + (0.5 * acceleration * 24 * 24)

	// 5. Time-To-Limit
	// Linear projection: how many hours of sag at this rate until the
	// worst bus drops through the service floor.
	var ttl time.Duration = -1
	if limitPU > 0 && puVelocity < 0 {
		headroom := current.MinPerUnit - limitPU
		if headroom > 0 {
			hoursToFloor := headroom / (-puVelocity)
			ttl = time.Duration(hoursToFloor * float64(time.Hour))
		} else {
			ttl = 0 // Already below the floor
		}
	}

	pattern := ClassifyPattern(Transition(prev, current))

	// 6. Generate Alerts
	var alerts []string

	// Velocity Alert (losses climbing fast between studies)
	if velocity > 1.0 {
		alerts = append(alerts, fmt.Sprintf("🚨 LOSS SPIKE: resistive losses rising +%.2f kW per hour", velocity))
	}

	// Acceleration Alert (the compounding leak)
	if acceleration > 0.5 {
		alerts = append(alerts, fmt.Sprintf("☢️ ACCELERATION WARNING: loss growth is compounding (+%.2f kW/h²)", acceleration))
	}

	// Time-To-Limit Alert
	if ttl >= 0 && ttl < 24*time.Hour {
		alerts = append(alerts, fmt.Sprintf("💀 VOLTAGE CRITICAL: minimum bus voltage crosses %.2f pu in %s", limitPU, ttl.Round(time.Minute)))
	}

	if pattern == "FAULT" {
		alerts = append(alerts, "⚡ FAULT SIGNATURE: losses and violations rising without matching load growth")
	}

	return DriftResult{
		CurrentLossKW:      current.TotalLossKW,
		LossVelocity:       velocity,
		LossAcceleration:   acceleration,
		VoltageVelocity:    puVelocity,
		ProjectedLossKW24h: projected,
		TimeToLimit:        ttl,
		Pattern:            pattern,
		Alerts:             alerts,
	}
}
