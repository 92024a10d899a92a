package gap

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/srg/blegap/internal/advdata"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// PacketType distinguishes advertisements from scan responses.
type PacketType int

const (
	PacketAdvertisement PacketType = iota
	PacketScanResponse
)

func (t PacketType) String() string {
	if t == PacketScanResponse {
		return "scan_response"
	}
	return "advertisement"
}

// ScanReport describes one advertiser. Reports stored per advertiser in a
// ScanReportCollection accumulate every packet received from that address.
type ScanReport struct {
	Address    string
	PacketType PacketType
	RSSI       int // strongest RSSI seen
	Payload    []byte
	Data       advdata.Data
	Duplicate  bool // the address had been reported before this packet
	FirstSeen  time.Time
	LastSeen   time.Time
}

func newScanReport(r AdvertisingReport, now time.Time) (*ScanReport, error) {
	data, err := advdata.Parse(r.Payload)
	packetType := PacketAdvertisement
	if r.ScanResponse {
		packetType = PacketScanResponse
	}
	return &ScanReport{
		Address:    normalizeAddress(r.Address),
		PacketType: packetType,
		RSSI:       r.RSSI,
		Payload:    slices.Clone(r.Payload),
		Data:       data,
		FirstSeen:  now,
		LastSeen:   now,
	}, err
}

// LocalName returns the advertised local name, if any.
func (r *ScanReport) LocalName() string {
	return r.Data.LocalName()
}

// merge folds a later packet from the same advertiser into r.
func (r *ScanReport) merge(other *ScanReport) {
	r.Data = r.Data.Merge(other.Data)
	r.RSSI = max(r.RSSI, other.RSSI)
	r.Payload = append(r.Payload, other.Payload...)
	r.LastSeen = other.LastSeen
	if other.PacketType == PacketScanResponse {
		r.PacketType = PacketScanResponse
	}
}

func (r *ScanReport) clone() *ScanReport {
	c := *r
	c.Payload = slices.Clone(r.Payload)
	c.Data = r.Data.Merge(advdata.Data{})
	return &c
}

func (r *ScanReport) String() string {
	return fmt.Sprintf("ScanReport(%s, rssi: %d, %s, %s)", r.Address, r.RSSI, r.PacketType, r.Data)
}

// ScanReportCollection aggregates advertising reports per advertiser address.
// Peers are enumerated in the order they were first seen. Safe for concurrent use.
type ScanReportCollection struct {
	mu    sync.RWMutex
	peers *orderedmap.OrderedMap[string, *ScanReport]
	all   []*ScanReport
	now   func() time.Time
}

// NewScanReportCollection creates an empty collection.
func NewScanReportCollection() *ScanReportCollection {
	return &ScanReportCollection{
		peers: orderedmap.New[string, *ScanReport](),
		now:   time.Now,
	}
}

// Update records r and merges it into the entry for its advertiser. It returns
// a snapshot of the merged entry. A payload that fails to parse is still
// recorded; the returned error describes the parse failure.
func (c *ScanReportCollection) Update(r AdvertisingReport) (*ScanReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, parseErr := newScanReport(r, c.now())

	merged, seen := c.peers.Get(entry.Address)
	entry.Duplicate = seen
	c.all = append(c.all, entry)

	if !seen {
		merged = entry.clone()
		c.peers.Set(entry.Address, merged)
	} else {
		merged.merge(entry)
	}
	return merged.clone(), parseErr
}

// Get returns a snapshot of the merged report for address.
func (c *ScanReportCollection) Get(address string) (*ScanReport, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.peers.Get(normalizeAddress(address))
	if !ok {
		return nil, false
	}
	return r.clone(), true
}

// Peers returns one merged report per advertiser in first-seen order.
func (c *ScanReportCollection) Peers() []*ScanReport {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*ScanReport, 0, c.peers.Len())
	for pair := c.peers.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value.clone())
	}
	return out
}

// AllReports returns every raw report in arrival order.
func (c *ScanReportCollection) AllReports() []*ScanReport {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*ScanReport, len(c.all))
	for i, r := range c.all {
		out[i] = r.clone()
	}
	return out
}

// Len returns the number of distinct advertisers.
func (c *ScanReportCollection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.peers.Len()
}

// Clear drops all reports.
func (c *ScanReportCollection) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.peers = orderedmap.New[string, *ScanReport]()
	c.all = nil
}

func normalizeAddress(addr string) string {
	return strings.ToLower(addr)
}
