package risk

import "fmt"

// Violation names one broken limit.
type Violation struct {
	Code string
	Msg  string
}

// Decision is the outcome of evaluating a trade intent against the policy.
type Decision struct {
	Allowed    bool
	Violations []Violation
	RR         float64
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Intent is the proposed trade the checks run against.
type Intent struct {
	Entry      float64
	Stop       float64
	TakeProfit float64
	OpenTrades int // positions already open on the account
}

// Evaluate applies the exposure and trade-quality limits. A zero TakeProfit
// skips the RR check; a zero Stop is itself a violation since sizing and
// loss limits both depend on it.
func (p Policy) Evaluate(in Intent) Decision {
	d := Decision{Allowed: true}

	if in.Stop == 0 || in.Entry == 0 {
		d.add("NO_STOP_OR_ENTRY", "entry and stop must both be set")
		return d
	}

	if p.MaxOpenTrades > 0 && in.OpenTrades >= p.MaxOpenTrades {
		d.add("TOO_MANY_OPEN_TRADES",
			fmt.Sprintf("open trades %d >= max %d", in.OpenTrades, p.MaxOpenTrades))
	}

	if in.TakeProfit != 0 && p.MinRR > 0 {
		d.RR = RR(in.Entry, in.Stop, in.TakeProfit)
		if d.RR < p.MinRR {
			d.add("RR_TOO_LOW",
				fmt.Sprintf("reward/risk %.2f below minimum %.2f", d.RR, p.MinRR))
		}
	}

	return d
}
