package nlme

import (
	"zigbeecore/addr"
	"zigbeecore/nib"
)

// UpdateNeighbor inserts or refreshes one neighbor table entry, keyed by
// ExtendedAddress, resetting its Age to 0. If the table is full and the
// entry is new, the entry is dropped rather than evicting an existing
// one; eviction is AgeNeighbors' job, run on a link-status cycle. Each
// update is atomic per entry.
func UpdateNeighbor(n *nib.NIB, entry nib.NeighborDescriptor) error {
	table, err := n.NeighborTable()
	if err != nil {
		return err
	}
	entry.Age = 0
	for i, existing := range table {
		if existing.ExtendedAddress == entry.ExtendedAddress {
			table[i] = entry
			return n.SetNeighborTable(table)
		}
	}
	if len(table) >= nib.MaxNeighbors {
		return nil
	}
	table = append(table, entry)
	return n.SetNeighborTable(table)
}

// AgeNeighbors increments Age on every neighbor table entry and evicts
// any whose Age now exceeds limit ("stale entries are removed
// once their age exceeds router_age_limit link-status cycles").
func AgeNeighbors(n *nib.NIB, limit uint8) error {
	table, err := n.NeighborTable()
	if err != nil {
		return err
	}
	kept := table[:0]
	for _, entry := range table {
		entry.Age++
		if entry.Age <= limit {
			kept = append(kept, entry)
		}
	}
	return n.SetNeighborTable(kept)
}

// UpdateRoute inserts or refreshes one route table entry, keyed by
// DestinationAddress.
func UpdateRoute(n *nib.NIB, entry nib.RouteDescriptor) error {
	table, err := n.RouteTable()
	if err != nil {
		return err
	}
	for i, existing := range table {
		if existing.DestinationAddress == entry.DestinationAddress {
			table[i] = entry
			return n.SetRouteTable(table)
		}
	}
	if len(table) >= nib.MaxRoutes {
		return nil
	}
	table = append(table, entry)
	return n.SetRouteTable(table)
}

// RecordBroadcast appends a broadcast transaction record, evicting the
// oldest entry first if the bounded table is already full, so this
// device can recognize a broadcast it has already relayed.
func RecordBroadcast(n *nib.NIB, source addr.ShortAddress, sequence uint8, expiration uint8) error {
	table, err := n.BroadcastTransactionTable()
	if err != nil {
		return err
	}
	for _, existing := range table {
		if existing.Source == source && existing.SequenceNumber == sequence {
			return nil
		}
	}
	record := nib.BroadcastTransactionRecord{Source: source, SequenceNumber: sequence, ExpirationTime: expiration}
	if len(table) >= nib.MaxBroadcastTransactions {
		table = table[1:]
	}
	table = append(table, record)
	return n.SetBroadcastTransactionTable(table)
}

// AlreadyRelayed reports whether source/sequence is already present in
// the broadcast transaction table.
func AlreadyRelayed(n *nib.NIB, source addr.ShortAddress, sequence uint8) (bool, error) {
	table, err := n.BroadcastTransactionTable()
	if err != nil {
		return false, err
	}
	for _, existing := range table {
		if existing.Source == source && existing.SequenceNumber == sequence {
			return true, nil
		}
	}
	return false, nil
}
