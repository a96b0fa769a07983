package tile

import "sort"

// sortedRun locates the contiguous run of indices in [0,n) whose key equals
// target, given that key is non-decreasing over [0,n). It implements the
// shared sorted-lookup contract: binary search to any matching position,
// scan backward to the first equal entry, then scan forward collecting the
// run. Returns (start, count); count is 0 if no entry matches.
func sortedRun(n int, key func(i int) uint64, target uint64) (start, count int) {
	pos := sort.Search(n, func(i int) bool { return key(i) >= target })
	if pos >= n || key(pos) != target {
		return 0, 0
	}
	// pos is already the leftmost match; scanning backward from a binary
	// search hit elsewhere in the run would land here too.
	end := pos
	for end < n && key(end) == target {
		end++
	}
	return pos, end - pos
}

// GetSigns returns every sign attached to edgeIndex, with resolved text, in storage order.
func (t *Tile) GetSigns(edgeIndex uint32) ([]ResolvedSign, error) {
	n := t.countOr(0, func(h *Header) int { return int(h.SignCount) })
	start, count := sortedRun(n, func(i int) uint64 {
		return uint64(unmarshalSign(t.signs[i*signSize : (i+1)*signSize]).EdgeIndex)
	}, uint64(edgeIndex))

	out := make([]ResolvedSign, 0, count)
	for i := start; i < start+count; i++ {
		s := unmarshalSign(t.signs[i*signSize : (i+1)*signSize])
		text, err := t.GetName(s.TextOffset)
		if err != nil {
			return nil, err
		}
		out = append(out, ResolvedSign{Sign: s, Text: text})
	}
	return out, nil
}

// ResolvedSign pairs a Sign record with its text resolved from the text list.
type ResolvedSign struct {
	Sign Sign
	Text string
}

// GetAccessRestrictions returns every access restriction on edgeIndex.
func (t *Tile) GetAccessRestrictions(edgeIndex uint32) []AccessRestriction {
	n := t.countOr(0, func(h *Header) int { return int(h.AccessRestrictionCount) })
	start, count := sortedRun(n, func(i int) uint64 {
		return uint64(unmarshalAccessRestriction(t.accessRestrictions[i*accessRestrictionSize : (i+1)*accessRestrictionSize]).EdgeIndex)
	}, uint64(edgeIndex))

	out := make([]AccessRestriction, 0, count)
	for i := start; i < start+count; i++ {
		out = append(out, unmarshalAccessRestriction(t.accessRestrictions[i*accessRestrictionSize:(i+1)*accessRestrictionSize]))
	}
	return out
}

// GetTransfers returns the (start, count) run of transfers whose FromStopID matches fromStop.
func (t *Tile) GetTransfers(fromStop uint32) (start, count int) {
	n := t.countOr(0, func(h *Header) int { return int(h.TransferCount) })
	return sortedRun(n, func(i int) uint64 {
		return uint64(unmarshalTransitTransfer(t.transfers[i*transitTransferSize : (i+1)*transitTransferSize]).FromStopID)
	}, uint64(fromStop))
}

// GetTransfer locates the single transfer from fromStop to toStop, if any.
func (t *Tile) GetTransfer(fromStop, toStop uint32) (TransitTransfer, bool) {
	start, count := t.GetTransfers(fromStop)
	for i := start; i < start+count; i++ {
		tr := unmarshalTransitTransfer(t.transfers[i*transitTransferSize : (i+1)*transitTransferSize])
		if tr.ToStopID == toStop {
			return tr, true
		}
	}
	return TransitTransfer{}, false
}

// GetTransitRoute looks up the route with the given id.
func (t *Tile) GetTransitRoute(routeID uint32) (TransitRoute, bool) {
	n := t.countOr(0, func(h *Header) int { return int(h.RouteCount) })
	start, count := sortedRun(n, func(i int) uint64 {
		return uint64(unmarshalTransitRoute(t.routes[i*transitRouteSize : (i+1)*transitRouteSize]).RouteID)
	}, uint64(routeID))
	if count == 0 {
		return TransitRoute{}, false
	}
	return unmarshalTransitRoute(t.routes[start*transitRouteSize : (start+1)*transitRouteSize]), true
}

// GetTransitDeparture looks up the departure for (lineID, tripID). Departures
// are sorted by (LineID, DepartureTimeSeconds); within the LineID run, the
// TripID is found by linear scan as the contract specifies.
func (t *Tile) GetTransitDeparture(lineID, tripID uint32) (TransitDeparture, bool) {
	n := t.countOr(0, func(h *Header) int { return int(h.DepartureCount) })
	start, count := sortedRun(n, func(i int) uint64 {
		return uint64(t.departureAt(i).LineID)
	}, uint64(lineID))
	for i := start; i < start+count; i++ {
		d := t.departureAt(i)
		if d.TripID == tripID {
			return d, true
		}
	}
	return TransitDeparture{}, false
}

func (t *Tile) departureAt(i int) TransitDeparture {
	return unmarshalTransitDeparture(t.departures[i*transitDepartureSize : (i+1)*transitDepartureSize])
}

// admitsCalendar reports whether d runs on date given dayOfWeek, per the
// authoritative rule: within 60 days of the tile's creation date, the
// per-departure bitmap governs; beyond that window, the day-of-week mask is
// the fallback.
func admitsCalendar(d TransitDeparture, header *Header, date uint32, dayOfWeek uint8) bool {
	if date <= header.DateCreated+60 {
		if date < header.DateCreated {
			return false
		}
		bit := date - header.DateCreated
		return d.DaysBitmap&(1<<bit) != 0
	}
	return d.DayOfWeekMask&dayOfWeek != 0
}

// GetNextDeparture returns the first departure on lineID whose departure
// time is at or after currentTimeOfDay and whose calendar admits date/dayOfWeek.
// It never wraps to the next day: exhausting the line's run without a match
// returns (TransitDeparture{}, false).
func (t *Tile) GetNextDeparture(lineID uint32, currentTimeOfDay, date uint32, dayOfWeek uint8) (TransitDeparture, bool) {
	n := t.countOr(0, func(h *Header) int { return int(h.DepartureCount) })
	start, count := sortedRun(n, func(i int) uint64 {
		return uint64(t.departureAt(i).LineID)
	}, uint64(lineID))

	for i := start; i < start+count; i++ {
		d := t.departureAt(i)
		if d.DepartureTimeSeconds < currentTimeOfDay {
			continue
		}
		if admitsCalendar(d, t.header, date, dayOfWeek) {
			return d, true
		}
	}
	return TransitDeparture{}, false
}
