/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package guess

import "math"

const (
	StartingScore = 10.0
	MinChoice     = 0
	MaxChoice     = 100

	lossDivisor = 10.0
)

// Entry is one roster player as seen by Settle, in join order.
type Entry struct {
	PlayerID  string
	Name      string
	Score     float64
	Choice    int
	Submitted bool
}

// Result is one player's line in a settled round.
type Result struct {
	PlayerID  string
	Name      string
	Choice    int
	Submitted bool
	Distance  float64
	Loss      float64
	Score     float64
}

// Outcome is the settlement of a single round.
type Outcome struct {
	Average    float64
	Target     float64
	Factor     float64
	WinnerID   string
	WinnerName string
	Results    []Result
}

// HasWinner reports whether anyone submitted this round.
func (o Outcome) HasWinner() bool { return o.WinnerID != "" }

// Settle scores a round. Players who did not submit keep their score and
// are never the winner. Ties on distance go to the earliest entry.
func Settle(factor float64, entries []Entry) Outcome {
	var sum float64
	var count int

	for _, e := range entries {
		if !e.Submitted {
			continue
		}
		sum += float64(e.Choice)
		count++
	}

	var average float64
	if count > 0 {
		average = sum / float64(count)
	}

	out := Outcome{
		Average: average,
		Target:  average * factor,
		Factor:  factor,
		Results: make([]Result, 0, len(entries)),
	}

	closest := math.Inf(1)

	for _, e := range entries {
		r := Result{
			PlayerID:  e.PlayerID,
			Name:      e.Name,
			Choice:    e.Choice,
			Submitted: e.Submitted,
			Score:     e.Score,
		}

		if e.Submitted {
			r.Distance = math.Abs(float64(e.Choice) - out.Target)
			r.Loss = r.Distance / lossDivisor
			r.Score = math.Max(0, e.Score-r.Loss)

			if r.Distance < closest {
				closest = r.Distance
				out.WinnerID = e.PlayerID
				out.WinnerName = e.Name
			}
		}

		out.Results = append(out.Results, r)
	}

	return out
}

// round2 rounds to two decimal places for display.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
