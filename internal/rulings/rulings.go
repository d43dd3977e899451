// Copyright (c) 2026 VTES Biased. All rights reserved.
// Author: rulings@vtes-biased.org

/*
Package rulings implements the proposal overlay engine at the heart of the
rulings website.

It models the curated rulings reference as two independently constructible
value types:

  - [Index]: the last known-good base snapshot of references, groups and
    rulings, plus derived lookup indexes. Read-only between rebuilds, and
    entirely replaced (never mutated in place) when a proposal is merged.
  - [Proposal]: a sparse overlay holding only the entries that differ from
    the base, each carrying a [State] tag recording why it differs.

A [Manager] binds an Index and a Proposal together: all reads resolve through
the overlay first, all mutations only ever touch the overlay. The consistency
checker and the merge algorithm operate on the same pair.

# Concurrency

Every Manager call is a pure synchronous computation over its two inputs; the
engine performs no I/O and holds no locks. Callers serialize edits to a single
proposal and serialize merges globally (see the proposal service).
*/
package rulings

// State records why an overlay entry differs from the base snapshot.
//
// State tags are overlay-only bookkeeping: a freshly built or freshly merged
// Index contains only ORIGINAL entries.
type State string

const (
	// StateOriginal marks an entry identical to the base snapshot.
	StateOriginal State = "ORIGINAL"
	// StateNew marks an entry that exists only in the overlay.
	StateNew State = "NEW"
	// StateModified marks an overlay copy of a base entry with pending edits.
	StateModified State = "MODIFIED"
	// StateDeleted marks a tombstone shadowing a base entry.
	StateDeleted State = "DELETED"
)

// NID is a named identifier: an opaque uid plus a display name.
//
// Two NIDs with the same uid denote the same entity regardless of name; the
// name is display-only.
type NID struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

// String renders the canonical "uid|name" form used by the YAML files.
func (n NID) String() string { return n.UID + "|" + n.Name }

// Reference is a dated citation a ruling can point at.
//
// The uid format is "<SRC> <YYYYMMDD>[-N]": a three-letter source code, the
// ISO date of the ruling, and an optional numeric suffix disambiguating
// same-day entries. Rulebook (RBK) references carry no date.
type Reference struct {
	UID    string `json:"uid"`
	URL    string `json:"url"`
	Source string `json:"source"`
	Date   string `json:"date,omitempty"`
	State  State  `json:"state"`
}

// Clone returns an independent copy.
func (r *Reference) Clone() *Reference {
	c := *r
	return &c
}

// SymbolSubstitution records one discipline or card-type token found in a
// text, with the glyph it renders as in the Ankha symbol font.
type SymbolSubstitution struct {
	Text   string `json:"text"`
	Symbol string `json:"symbol"`
}

// BaseCard is the minimal card metadata the engine duplicates from the
// external catalog at write time, so reads never need to re-fetch.
type BaseCard struct {
	NID
	PrintedName string `json:"printed_name"`
	Img         string `json:"img"`
}

// CardSubstitution is an inline {Card Name} mention found in a ruling text.
type CardSubstitution struct {
	BaseCard
	Text string `json:"text"`
}

// ReferenceSubstitution is an inline [SRC YYYYMMDD] citation token found in
// a ruling text, resolved against the reference collection.
type ReferenceSubstitution struct {
	Reference
	Text string `json:"text"`
}

// CardInGroup is one membership row of a [Group].
//
// Its state is independent of the group's state: a group can be MODIFIED
// because one member's prefix changed while the other members stay ORIGINAL.
type CardInGroup struct {
	BaseCard
	State   State                `json:"state"`
	Prefix  string               `json:"prefix"`
	Symbols []SymbolSubstitution `json:"symbols"`
}

// Clone returns an independent copy.
func (c *CardInGroup) Clone() *CardInGroup {
	clone := *c
	clone.Symbols = append([]SymbolSubstitution(nil), c.Symbols...)
	return &clone
}

// Group is an ordered set of cards sharing rulings.
//
// Permanent group uids start with "G"; provisional uids minted inside a
// proposal start with "P" and are replaced by the next free permanent id at
// merge time.
type Group struct {
	UID   string        `json:"uid"`
	Name  string        `json:"name"`
	State State         `json:"state"`
	Cards []CardInGroup `json:"cards"`
}

// Clone returns a deep copy, membership rows included.
func (g *Group) Clone() *Group {
	clone := *g
	clone.Cards = make([]CardInGroup, 0, len(g.Cards))
	for i := range g.Cards {
		clone.Cards = append(clone.Cards, *g.Cards[i].Clone())
	}
	return &clone
}

// LiveCards counts the non-deleted membership rows.
func (g *Group) LiveCards() int {
	count := 0
	for i := range g.Cards {
		if g.Cards[i].State != StateDeleted {
			count++
		}
	}
	return count
}

// GroupOfCard is the card-centric view of a group membership: the group's
// identity plus the prefix the card uses inside it.
type GroupOfCard struct {
	NID
	State   State                `json:"state"`
	Prefix  string               `json:"prefix"`
	Symbols []SymbolSubstitution `json:"symbols"`
}

// Ruling is one curated ruling attached to a card or a group.
//
// The uid is the content hash of the text ([StableHash]), so identical
// wording always yields the same id; rulings built from empty text get a
// random transient id instead. Two rulings are equal iff their (target uid,
// uid) pairs match.
type Ruling struct {
	UID        string                  `json:"uid"`
	Target     NID                     `json:"target"`
	Text       string                  `json:"text"`
	State      State                   `json:"state"`
	Symbols    []SymbolSubstitution    `json:"symbols"`
	References []ReferenceSubstitution `json:"references"`
	Cards      []CardSubstitution      `json:"cards"`
}

// Clone returns a deep copy, substitution lists included.
func (r *Ruling) Clone() *Ruling {
	clone := *r
	clone.Symbols = append([]SymbolSubstitution(nil), r.Symbols...)
	clone.References = append([]ReferenceSubstitution(nil), r.References...)
	clone.Cards = append([]CardSubstitution(nil), r.Cards...)
	return &clone
}

// Backref records that the ruling identified by (TargetUID, RulingUID)
// mentions a given card in its text.
type Backref struct {
	TargetUID string `json:"target_uid"`
	RulingUID string `json:"ruling_uid"`
}

// Index is the base snapshot: the three canonical collections plus the
// derived indexes built at load time.
//
// Rulings are keyed by target uid, then by ruling uid. An Index is read-only
// once built; merge produces a brand-new Index so in-flight readers keep a
// consistent view of the old one.
type Index struct {
	References map[string]*Reference         `json:"references"`
	Groups     map[string]*Group             `json:"groups"`
	Rulings    map[string]map[string]*Ruling `json:"rulings"`

	// GroupsOfCard maps a card uid to the set of group uids it belongs to.
	GroupsOfCard map[string]map[string]bool `json:"-"`
	// Backrefs maps a card uid to the rulings mentioning it.
	Backrefs map[string][]Backref `json:"-"`
}

// NewIndex returns an empty Index with all maps allocated.
func NewIndex() *Index {
	return &Index{
		References:   map[string]*Reference{},
		Groups:       map[string]*Group{},
		Rulings:      map[string]map[string]*Ruling{},
		GroupsOfCard: map[string]map[string]bool{},
		Backrefs:     map[string][]Backref{},
	}
}

// Clone returns a deep copy of the three canonical collections.
// Derived indexes are rebuilt by the caller when needed, not copied.
func (idx *Index) Clone() *Index {
	clone := NewIndex()
	for uid, ref := range idx.References {
		clone.References[uid] = ref.Clone()
	}
	for uid, group := range idx.Groups {
		clone.Groups[uid] = group.Clone()
	}
	for target, rulings := range idx.Rulings {
		clone.Rulings[target] = make(map[string]*Ruling, len(rulings))
		for uid, ruling := range rulings {
			clone.Rulings[target][uid] = ruling.Clone()
		}
	}
	return clone
}

// Proposal is a sparse overlay of pending edits on top of an Index.
//
// The three collections mirror the Index's, keyed by the same uids, but hold
// only entries that differ from the base. A proposal is created empty, edited
// through Manager mutators, optionally submitted for discussion, and finally
// either merged into a new Index or abandoned; it never outlives its merge.
type Proposal struct {
	UID         string `json:"uid"`
	Usr         string `json:"usr"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// ChannelID is the external discussion thread, empty until submitted.
	ChannelID string `json:"channel_id"`

	References map[string]*Reference         `json:"references"`
	Groups     map[string]*Group             `json:"groups"`
	Rulings    map[string]map[string]*Ruling `json:"rulings"`
}

// NewProposal returns an empty proposal with a fresh random uid.
func NewProposal(usr, name, description string) *Proposal {
	return &Proposal{
		UID:         RandomUID(),
		Usr:         usr,
		Name:        name,
		Description: description,
		References:  map[string]*Reference{},
		Groups:      map[string]*Group{},
		Rulings:     map[string]map[string]*Ruling{},
	}
}

// Empty reports whether the proposal holds no overlay entries at all.
func (p *Proposal) Empty() bool {
	return len(p.References) == 0 && len(p.Groups) == 0 && len(p.Rulings) == 0
}

// ChangeCounts returns the number of changed references, groups and rulings,
// the summary handed to the notification collaborator on submission.
func (p *Proposal) ChangeCounts() (references, groups, rulings int) {
	references = len(p.References)
	groups = len(p.Groups)
	for _, perTarget := range p.Rulings {
		rulings += len(perTarget)
	}
	return references, groups, rulings
}

// CheckError is one problem found by the consistency checker.
//
// The checker's report is a normal return value, not an error path: a slice
// of CheckError enumerates every rule violation in the merged view.
type CheckError struct {
	Target    NID    `json:"target"`
	RulingUID string `json:"ruling_uid,omitempty"`
	Message   string `json:"message"`
}

// CardResolver supplies canonical card metadata from the external catalog.
//
// Implementations resolve either a decimal card id or an exact card name and
// return a NotFoundError for unknown keys. The engine duplicates resolved
// metadata into its own records at write time and never calls back on reads.
type CardResolver interface {
	Resolve(idOrName string) (BaseCard, error)
}
