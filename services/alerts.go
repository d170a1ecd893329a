package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"pnodemon/config"
)

// AlertService watches the network score and posts to a Discord channel
// when it degrades. Without a token it constructs fine and does nothing.
type AlertService struct {
	cfg     *config.Config
	monitor *Monitor
	session *discordgo.Session

	lastScore     int
	lastDominance bool
	primed        bool

	stopChan chan struct{}
}

func NewAlertService(cfg *config.Config, monitor *Monitor) *AlertService {
	svc := &AlertService{
		cfg:      cfg,
		monitor:  monitor,
		stopChan: make(chan struct{}),
	}

	if cfg.Alerts.DiscordToken == "" || cfg.Alerts.DiscordChannelID == "" {
		log.Println("Discord alerts disabled (no token or channel configured)")
		return svc
	}

	session, err := discordgo.New("Bot " + cfg.Alerts.DiscordToken)
	if err != nil {
		log.Printf("Discord alerts disabled: %v", err)
		return svc
	}
	svc.session = session
	log.Println("Discord alerts enabled")
	return svc
}

func (a *AlertService) Enabled() bool {
	return a.session != nil
}

func (a *AlertService) Start() {
	if !a.Enabled() {
		return
	}
	go a.runLoop()
}

func (a *AlertService) Stop() {
	close(a.stopChan)
	if a.session != nil {
		a.session.Close()
	}
}

func (a *AlertService) runLoop() {
	ticker := time.NewTicker(a.cfg.AlertIntervalDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.check()
		case <-a.stopChan:
			return
		}
	}
}

// check fires on transitions, not levels: a score crossing below the
// threshold or the dominance flag switching on. Repeated bad readings
// stay quiet until the condition clears and re-triggers.
func (a *AlertService) check() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	analytics, _, err := a.monitor.Analytics(ctx)
	if err != nil {
		log.Printf("Alert check skipped: %v", err)
		return
	}

	score := analytics.Health.Score
	dominance := analytics.Risks.SingleVersionDominance

	if a.primed {
		threshold := a.cfg.Alerts.ScoreThreshold
		if score < threshold && a.lastScore >= threshold {
			a.send(fmt.Sprintf(
				"⚠️ Network health score dropped to **%d** (threshold %d). Healthy: %.1f%%, offline: %d of %d nodes.",
				score, threshold,
				analytics.Health.HealthyPercent,
				analytics.Totals.Offline, analytics.Totals.Total))
		}
		if dominance && !a.lastDominance {
			a.send(fmt.Sprintf(
				"⚠️ Version dominance risk: **%s** now runs on more than 80%% of the network (%d nodes total).",
				dominantVersion(analytics.Versions.Histogram), analytics.Totals.Total))
		}
	}

	a.lastScore = score
	a.lastDominance = dominance
	a.primed = true
}

func dominantVersion(histogram map[string]int) string {
	best, bestCount := "", -1
	for v, count := range histogram {
		if count > bestCount {
			best, bestCount = v, count
		}
	}
	return best
}

func (a *AlertService) send(message string) {
	if _, err := a.session.ChannelMessageSend(a.cfg.Alerts.DiscordChannelID, message); err != nil {
		log.Printf("Discord alert send failed: %v", err)
	}
}
