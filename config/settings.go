package config

import (
	"strconv"
	"time"
)

// Settings holds the tunable business rules the engines consume.
type Settings struct {
	// NegotiationFloorRatio is the minimum acceptable negotiated price as a
	// fraction of the list total; offers below it return PRICE_TOO_LOW.
	NegotiationFloorRatio float64

	// NegotiationTTL is how long a negotiation offer stays acceptable.
	NegotiationTTL time.Duration

	// LongStayMinNights is the stay length at which a property's long-stay
	// discount applies.
	LongStayMinNights int

	// SettlementURL is the base URL of the settlement collaborator.
	SettlementURL string

	// PayoutSweepInterval is how often pending payouts are re-dispatched.
	PayoutSweepInterval time.Duration
}

func envFloat(key string, def float64) float64 {
	raw := envOrDefault(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	raw := envOrDefault(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func LoadSettings() Settings {
	return Settings{
		NegotiationFloorRatio: envFloat("NEGOTIATION_FLOOR_RATIO", 0.70),
		NegotiationTTL:        time.Duration(envInt("NEGOTIATION_TTL_HOURS", 48)) * time.Hour,
		LongStayMinNights:     envInt("LONG_STAY_MIN_NIGHTS", 28),
		SettlementURL:         envOrDefault("SETTLEMENT_URL", "http://localhost:9090"),
		PayoutSweepInterval:   time.Duration(envInt("PAYOUT_SWEEP_SECONDS", 60)) * time.Second,
	}
}
