// Package multiaccount implements the multi-account similarity engine: it
// detects one person operating several accounts by comparing device
// fingerprints, identity data, behavior, network footprint and geography
// across a candidate pool.
package multiaccount

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/richxcame/trust-safety/internal/geo"
	"github.com/richxcame/trust-safety/internal/similarity"
	"github.com/richxcame/trust-safety/pkg/models"
)

// Pairwise blend weights. They sum to 1; a missing factor contributes zero
// rather than being renormalized away.
const (
	weightDevice     = 0.30
	weightPersonal   = 0.25
	weightBehavioral = 0.20
	weightNetwork    = 0.15
	weightGeographic = 0.10
)

// Two frequent locations closer than this are treated as the same place.
const sharedLocationRadiusM = 500.0

// Home-location similarity decays linearly to zero at this distance.
const homeDecayDistanceM = 10000.0

// Config holds the tunable thresholds of the engine
type Config struct {
	SimilarityThreshold float64 // minimum pairwise similarity before a candidate is a suspect
	AlertThreshold      float64 // minimum risk score to emit an alert
	HighRiskThreshold   float64 // critical severity band
	Concurrency         int     // worker limit for the candidate fan-out
}

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 70,
		AlertThreshold:      70,
		HighRiskThreshold:   85,
		Concurrency:         8,
	}
}

// Engine performs multi-account similarity analysis. It is immutable after
// construction and safe for concurrent use.
type Engine struct {
	cfg    Config
	scorer BehaviorScorer
}

// NewEngine creates an engine with the given config and behavior scorer.
// A nil scorer falls back to the profile-based default.
func NewEngine(cfg Config, scorer BehaviorScorer) *Engine {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	if scorer == nil {
		scorer = NewProfileScorer()
	}
	return &Engine{cfg: cfg, scorer: scorer}
}

// CompareAccounts returns the weighted similarity of two account snapshots
// in [0,100]. The comparison is symmetric in its arguments.
func (e *Engine) CompareAccounts(a, b *AccountData) float64 {
	if a == nil || b == nil {
		return 0
	}

	score := e.deviceSimilarity(a, b)*weightDevice +
		e.personalSimilarity(a, b)*weightPersonal +
		e.behavioralSimilarity(a, b)*weightBehavioral +
		e.networkSimilarity(a, b)*weightNetwork +
		e.geographicSimilarity(a, b)*weightGeographic

	return models.ClampScore(score)
}

// deviceSimilarity scores fingerprint overlap. An exact device ID match is
// conclusive; otherwise partial credit accrues for matching build fields,
// normalized over the fields present on both sides.
func (e *Engine) deviceSimilarity(a, b *AccountData) float64 {
	if a.Device == nil || b.Device == nil {
		return 0
	}
	da, db := a.Device, b.Device

	if da.DeviceID != "" && da.DeviceID == db.DeviceID {
		return 100
	}

	type field struct {
		av, bv string
		weight float64
	}
	fields := []field{
		{da.Model, db.Model, 30},
		{da.Platform, db.Platform, 20},
		{da.OSVersion, db.OSVersion, 15},
		{da.AppVersion, db.AppVersion, 10},
	}

	var earned, possible float64
	for _, f := range fields {
		if f.av == "" || f.bv == "" {
			continue
		}
		possible += f.weight
		if strings.EqualFold(f.av, f.bv) {
			earned += f.weight
		}
	}
	if possible == 0 {
		return 0
	}
	return 100 * earned / possible
}

// personalSimilarity averages name, phone, email and address comparison
// over the identity fields present on both accounts.
func (e *Engine) personalSimilarity(a, b *AccountData) float64 {
	var total float64
	var factors int

	if a.FullName != "" && b.FullName != "" {
		total += similarity.NameSimilarity(a.FullName, b.FullName) * 100
		factors++
	}
	if a.Phone != "" && b.Phone != "" {
		if similarity.PhonesMatch(a.Phone, b.Phone) {
			total += 100
		}
		factors++
	}
	if a.Email != "" && b.Email != "" {
		total += similarity.EmailSimilarity(a.Email, b.Email) * 100
		factors++
	}
	if !a.Address.IsZero() && !b.Address.IsZero() {
		total += similarity.AddressSimilarity(a.Address, b.Address) * 100
		factors++
	}

	if factors == 0 {
		return 0
	}
	return total / float64(factors)
}

func (e *Engine) behavioralSimilarity(a, b *AccountData) float64 {
	if a.Behavior == nil || b.Behavior == nil {
		return 0
	}
	return (e.scorer.RideSimilarity(a, b) +
		e.scorer.TimingSimilarity(a, b) +
		e.scorer.UsageSimilarity(a, b)) / 3
}

// networkSimilarity scores IP overlap (25 pts), carrier match (25 pts) and
// WiFi SSID overlap (50 pts).
func (e *Engine) networkSimilarity(a, b *AccountData) float64 {
	if a.Network == nil || b.Network == nil {
		return 0
	}
	na, nb := a.Network, b.Network

	var score float64
	score += jaccardOverlap(na.IPAddresses, nb.IPAddresses) * 25
	if na.Carrier != "" && strings.EqualFold(na.Carrier, nb.Carrier) {
		score += 25
	}
	score += jaccardOverlap(na.WifiSSIDs, nb.WifiSSIDs) * 50

	return score
}

// geographicSimilarity blends home-location proximity with frequent-location
// set overlap, averaged over the components present on both accounts.
func (e *Engine) geographicSimilarity(a, b *AccountData) float64 {
	var total float64
	var factors int

	if a.HomeLocation != nil && b.HomeLocation != nil {
		total += homeProximityScore(*a.HomeLocation, *b.HomeLocation)
		factors++
	}
	if len(a.FrequentLocations) > 0 && len(b.FrequentLocations) > 0 {
		total += locationOverlapRatio(a.FrequentLocations, b.FrequentLocations) * 100
		factors++
	}

	if factors == 0 {
		return 0
	}
	return total / float64(factors)
}

// Detect compares the account against the candidate pool and aggregates all
// multi-accounting sub-signals into a Detection record. The pool fan-out is
// bounded by Config.Concurrency; results are merged deterministically.
// When the sweep is cancelled mid-way, the detection built from candidates
// already scored is still returned, alongside the context error.
func (e *Engine) Detect(ctx context.Context, accountID string, data *AccountData, pool []*AccountData) (*Detection, error) {
	if data == nil {
		return nil, nil
	}

	scores := make([]float64, len(pool))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for i, cand := range pool {
		if cand == nil || cand.AccountID == accountID {
			continue
		}
		i, cand := i, cand
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scores[i] = e.CompareAccounts(data, cand)
			return nil
		})
	}
	sweepErr := g.Wait()

	det := &Detection{AccountID: accountID, AnalyzedAt: time.Now()}

	var suspectData []*AccountData
	for i, cand := range pool {
		if cand == nil || cand.AccountID == accountID || scores[i] < e.cfg.SimilarityThreshold {
			continue
		}
		det.SuspectedAccounts = append(det.SuspectedAccounts, SuspectedAccount{
			AccountID:        cand.AccountID,
			AccountType:      cand.AccountType,
			CreationDate:     cand.CreatedAt,
			SimilarityScore:  scores[i],
			SharedAttributes: e.sharedAttributes(data, cand),
			LastActivity:     cand.LastActivity,
		})
		suspectData = append(suspectData, cand)
	}

	// Sort by score descending, account ID ascending, so ordering never
	// depends on worker completion order.
	order := make([]int, len(det.SuspectedAccounts))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		sx, sy := det.SuspectedAccounts[order[x]], det.SuspectedAccounts[order[y]]
		if sx.SimilarityScore != sy.SimilarityScore {
			return sx.SimilarityScore > sy.SimilarityScore
		}
		return sx.AccountID < sy.AccountID
	})
	sortedSuspects := make([]SuspectedAccount, len(order))
	sortedData := make([]*AccountData, len(order))
	for i, idx := range order {
		sortedSuspects[i] = det.SuspectedAccounts[idx]
		sortedData[i] = suspectData[idx]
	}
	det.SuspectedAccounts = sortedSuspects

	if len(sortedData) == 0 {
		return det, sweepErr
	}

	e.analyzeDeviceSharing(det, data, sortedData)
	e.analyzeNetworkSharing(det, data, sortedData)
	e.analyzeIdentityOverlap(det, data, sortedData)
	e.analyzeBehavioralCorrelation(det, data, sortedData)
	e.analyzeGeographicOverlap(det, data, sortedData)
	e.analyzePhilippinesSignals(det, data, sortedData)

	det.RiskScore = e.riskScore(det)
	return det, sweepErr
}

// AnalyzeAccount runs the full multi-accounting analysis and returns an
// alert when the aggregated risk score clears the alert threshold, or nil
// when there is no signal.
func (e *Engine) AnalyzeAccount(ctx context.Context, accountID string, data *AccountData, pool []*AccountData) (*models.Alert, error) {
	det, err := e.Detect(ctx, accountID, data, pool)
	if err != nil {
		return nil, err
	}
	if det == nil || det.RiskScore < e.cfg.AlertThreshold {
		return nil, nil
	}
	return e.buildAlert(det), nil
}

func (e *Engine) sharedAttributes(a, b *AccountData) []string {
	var attrs []string
	if e.deviceSimilarity(a, b) >= 70 {
		attrs = append(attrs, "device")
	}
	if a.Phone != "" && similarity.PhonesMatch(a.Phone, b.Phone) {
		attrs = append(attrs, "phone")
	}
	if similarity.EmailSimilarity(a.Email, b.Email) >= 0.7 {
		attrs = append(attrs, "email")
	}
	if similarity.NameSimilarity(a.FullName, b.FullName) >= 0.8 {
		attrs = append(attrs, "name")
	}
	if e.networkSimilarity(a, b) >= 50 {
		attrs = append(attrs, "network")
	}
	if e.geographicSimilarity(a, b) >= 70 {
		attrs = append(attrs, "location")
	}
	return attrs
}

func (e *Engine) analyzeDeviceSharing(det *Detection, data *AccountData, suspects []*AccountData) {
	for _, s := range suspects {
		if data.Device != nil && s.Device != nil &&
			data.Device.DeviceID != "" && data.Device.DeviceID == s.Device.DeviceID {
			det.SharedDevices = append(det.SharedDevices, s.Device.DeviceID)
		}
		if sim := e.deviceSimilarity(data, s); sim > det.DeviceSimilarity {
			det.DeviceSimilarity = sim
		}
	}
}

func (e *Engine) analyzeNetworkSharing(det *Detection, data *AccountData, suspects []*AccountData) {
	if data.Network == nil {
		return
	}
	shared := make(map[string]struct{})
	sharedSSID := false
	carrierMatch := false
	for _, s := range suspects {
		if s.Network == nil {
			continue
		}
		for _, ip := range intersect(data.Network.IPAddresses, s.Network.IPAddresses) {
			shared[ip] = struct{}{}
		}
		if len(intersect(data.Network.WifiSSIDs, s.Network.WifiSSIDs)) > 0 {
			sharedSSID = true
		}
		if data.Network.Carrier != "" && strings.EqualFold(data.Network.Carrier, s.Network.Carrier) {
			carrierMatch = true
		}
	}
	det.SharedIPs = sortedKeys(shared)
	det.NetworkPatternFlag = len(det.SharedIPs) >= 2 || sharedSSID ||
		(carrierMatch && len(det.SharedIPs) >= 1)
}

func (e *Engine) analyzeIdentityOverlap(det *Detection, data *AccountData, suspects []*AccountData) {
	for _, s := range suspects {
		if n := similarity.NameSimilarity(data.FullName, s.FullName) * 100; n > det.NameMatchScore {
			det.NameMatchScore = n
		}
		if data.Phone != "" && similarity.PhonesMatch(data.Phone, s.Phone) {
			det.PhoneMatch = true
		}
		if em := similarity.EmailSimilarity(data.Email, s.Email) * 100; em > det.EmailSimilarity {
			det.EmailSimilarity = em
		}
		if ad := similarity.AddressSimilarity(data.Address, s.Address) * 100; ad > det.AddressMatch {
			det.AddressMatch = ad
		}
	}
}

func (e *Engine) analyzeBehavioralCorrelation(det *Detection, data *AccountData, suspects []*AccountData) {
	for _, s := range suspects {
		if e.scorer.RideSimilarity(data, s) >= 70 {
			det.RidePatternFlag = true
		}
		if t := e.scorer.TimingSimilarity(data, s); t > det.TimingCorrelation {
			det.TimingCorrelation = t
		}
	}
}

func (e *Engine) analyzeGeographicOverlap(det *Detection, data *AccountData, suspects []*AccountData) {
	for _, loc := range data.FrequentLocations {
		shared := false
		for _, s := range suspects {
			for _, other := range s.FrequentLocations {
				if geo.DistanceMeters(loc.Latitude, loc.Longitude, other.Latitude, other.Longitude) <= sharedLocationRadiusM {
					shared = true
					break
				}
			}
			if shared {
				break
			}
		}
		if shared {
			det.SharedLocations = append(det.SharedLocations, loc)
		}
	}

	if data.HomeLocation != nil {
		var total float64
		var counted int
		for _, s := range suspects {
			if s.HomeLocation == nil {
				continue
			}
			total += homeProximityScore(*data.HomeLocation, *s.HomeLocation)
			counted++
		}
		if counted > 0 {
			det.ProximityScore = total / float64(counted)
		}
	}
}

func (e *Engine) analyzePhilippinesSignals(det *Detection, data *AccountData, suspects []*AccountData) {
	for _, s := range suspects {
		if data.Address.Barangay != "" &&
			strings.EqualFold(strings.TrimSpace(data.Address.Barangay), strings.TrimSpace(s.Address.Barangay)) {
			det.SharedBarangay = true
		}
		last := similarity.LastName(data.FullName)
		otherLast := similarity.LastName(s.FullName)
		if last != "" && otherLast != "" &&
			(strings.Contains(last, otherLast) || strings.Contains(otherLast, last)) {
			det.FamilialMatch = true
		}
	}
}

// riskScore computes the weighted sum of all sub-signals, saturated to
// [0,100]. Raw sums routinely exceed 100; clipping is intentional.
func (e *Engine) riskScore(det *Detection) float64 {
	var score float64
	score += float64(len(det.SharedDevices)) * 25
	score += det.DeviceSimilarity * 0.3
	score += float64(len(det.SharedIPs)) * 15
	if det.NetworkPatternFlag {
		score += 20
	}
	score += det.NameMatchScore * 0.4
	if det.PhoneMatch {
		score += 40
	}
	score += det.EmailSimilarity * 0.3
	score += det.AddressMatch * 0.2
	if det.RidePatternFlag {
		score += 15
	}
	score += det.TimingCorrelation * 0.2
	score += float64(len(det.SharedLocations)) * 5
	score += det.ProximityScore * 0.1
	if det.SharedBarangay {
		score += 15
	}
	if det.FamilialMatch {
		score += 10
	}
	return models.ClampScore(score)
}

func (e *Engine) severity(score float64) models.Severity {
	switch {
	case score >= e.cfg.HighRiskThreshold:
		return models.SeverityCritical
	case score >= 80:
		return models.SeverityHigh
	case score >= 60:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

func (e *Engine) buildAlert(det *Detection) *models.Alert {
	alert := models.NewAlert(models.AlertTypeMultiAccounting, "account", det.AccountID)
	alert.FraudScore = det.RiskScore
	alert.Confidence = models.ClampScore(det.RiskScore + 5)
	if alert.Confidence > 95 {
		alert.Confidence = 95
	}
	alert.Severity = e.severity(det.RiskScore)
	alert.Title = "Multi-accounting suspected"
	alert.Description = fmt.Sprintf(
		"Account %s matched %d other account(s) above the %.0f similarity threshold (risk score %.1f)",
		det.AccountID, len(det.SuspectedAccounts), e.cfg.SimilarityThreshold, det.RiskScore,
	)

	if n := len(det.SharedDevices); n > 0 {
		alert.Evidence = append(alert.Evidence, models.Evidence{
			Description: fmt.Sprintf("%d suspect account(s) share this account's device fingerprint", n),
			Weight:      float64(n) * 25,
		})
		alert.Patterns = append(alert.Patterns, models.Pattern{Name: "device_sharing", RiskLevel: models.SeverityHigh})
	}
	if n := len(det.SharedIPs); n > 0 {
		alert.Evidence = append(alert.Evidence, models.Evidence{
			Description: fmt.Sprintf("%d IP address(es) shared with suspect accounts: %s", n, strings.Join(det.SharedIPs, ", ")),
			Weight:      float64(n) * 15,
		})
		alert.Patterns = append(alert.Patterns, models.Pattern{Name: "network_sharing", RiskLevel: models.SeverityMedium})
	}
	if det.PhoneMatch {
		alert.Evidence = append(alert.Evidence, models.Evidence{
			Description: "Phone number matches a suspect account after normalization",
			Weight:      40,
		})
	}
	if det.NameMatchScore >= 80 {
		alert.Evidence = append(alert.Evidence, models.Evidence{
			Description: fmt.Sprintf("Personal name closely matches a suspect account (%.0f%% similar)", det.NameMatchScore),
			Weight:      det.NameMatchScore * 0.4,
		})
		alert.Patterns = append(alert.Patterns, models.Pattern{Name: "identity_overlap", RiskLevel: models.SeverityHigh})
	}
	if det.SharedBarangay {
		alert.Evidence = append(alert.Evidence, models.Evidence{
			Description: "Registered in the same barangay as a suspect account",
			Weight:      15,
		})
	}
	if det.FamilialMatch {
		alert.Evidence = append(alert.Evidence, models.Evidence{
			Description: "Shares a family name with a suspect account",
			Weight:      10,
		})
		alert.Patterns = append(alert.Patterns, models.Pattern{Name: "familial_cluster", RiskLevel: models.SeverityLow})
	}
	if n := len(det.SharedLocations); n > 0 {
		alert.Evidence = append(alert.Evidence, models.Evidence{
			Description: fmt.Sprintf("%d frequent location(s) overlap with suspect accounts", n),
			Weight:      float64(n) * 5,
		})
	}

	alert.RiskFactors = []models.RiskFactor{
		{Name: "shared_devices", Contribution: float64(len(det.SharedDevices)) * 25},
		{Name: "device_similarity", Contribution: det.DeviceSimilarity * 0.3},
		{Name: "shared_ips", Contribution: float64(len(det.SharedIPs)) * 15},
		{Name: "network_pattern", Contribution: boolPoints(det.NetworkPatternFlag, 20)},
		{Name: "name_match", Contribution: det.NameMatchScore * 0.4},
		{Name: "phone_match", Contribution: boolPoints(det.PhoneMatch, 40)},
		{Name: "email_similarity", Contribution: det.EmailSimilarity * 0.3},
		{Name: "address_match", Contribution: det.AddressMatch * 0.2},
		{Name: "ride_pattern", Contribution: boolPoints(det.RidePatternFlag, 15)},
		{Name: "timing_correlation", Contribution: det.TimingCorrelation * 0.2},
		{Name: "shared_locations", Contribution: float64(len(det.SharedLocations)) * 5},
		{Name: "geographic_proximity", Contribution: det.ProximityScore * 0.1},
		{Name: "shared_barangay", Contribution: boolPoints(det.SharedBarangay, 15)},
		{Name: "familial_match", Contribution: boolPoints(det.FamilialMatch, 10)},
	}

	return alert
}

func homeProximityScore(a, b geo.Point) float64 {
	d := geo.DistanceMeters(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
	if d >= homeDecayDistanceM {
		return 0
	}
	return 100 * (1 - d/homeDecayDistanceM)
}

// locationOverlapRatio is the symmetric share of locations that have a
// counterpart within sharedLocationRadiusM on the other side.
func locationOverlapRatio(a, b []geo.Point) float64 {
	matchedA := countMatched(a, b)
	matchedB := countMatched(b, a)
	shared := matchedA
	if matchedB < shared {
		shared = matchedB
	}
	larger := len(a)
	if len(b) > larger {
		larger = len(b)
	}
	return float64(shared) / float64(larger)
}

func countMatched(from, to []geo.Point) int {
	matched := 0
	for _, p := range from {
		for _, q := range to {
			if geo.DistanceMeters(p.Latitude, p.Longitude, q.Latitude, q.Longitude) <= sharedLocationRadiusM {
				matched++
				break
			}
		}
	}
	return matched
}

// jaccardOverlap is shared-count over the larger set size, in [0,1].
func jaccardOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := len(intersect(a, b))
	larger := len(a)
	if len(b) > larger {
		larger = len(b)
	}
	return float64(shared) / float64(larger)
}

func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	var out []string
	seen := make(map[string]struct{})
	for _, v := range b {
		if _, ok := set[v]; ok {
			if _, dup := seen[v]; !dup {
				out = append(out, v)
				seen[v] = struct{}{}
			}
		}
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func boolPoints(b bool, pts float64) float64 {
	if b {
		return pts
	}
	return 0
}
