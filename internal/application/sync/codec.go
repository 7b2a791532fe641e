package sync

import (
	"encoding/json"
	"fmt"

	domainSync "github.com/sentryview/sentryview/internal/domain/sync"
)

// The blob is a plain JSON object keyed by channel ID. Mode flags and
// catch-up seen-sets are deliberately excluded: a restart always comes
// back in live mode.

// encodeSnapshot serializes the channel map for the blob store.
func encodeSnapshot(records map[string]domainSync.Record) ([]byte, error) {
	payload, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("could not encode sync state: %w", err)
	}
	return payload, nil
}

// decodeSnapshot deserializes a blob back into the channel map. Records
// whose channel ID field is empty (older payloads carried it only as
// the map key) are backfilled from their key.
func decodeSnapshot(payload []byte) (map[string]domainSync.Record, error) {
	var records map[string]domainSync.Record
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("could not decode sync state: %w", err)
	}

	for id, rec := range records {
		if rec.ChannelID == "" {
			rec.ChannelID = id
			records[id] = rec
		}
	}
	return records, nil
}
