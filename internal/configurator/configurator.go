package configurator

import (
	"sort"
	"sync"
	"time"

	"bistro/internal/models"
)

// groupErrorTTL is how long a transient "group full" message stays visible.
const groupErrorTTL = 3 * time.Second

// Configurator holds the mutable state of one item-configuration session:
// the item snapshot, the chosen variation and quantity, the selection state,
// and per-group transient error messages with their auto-clear timers.
type Configurator struct {
	mu          sync.Mutex
	item        *models.MenuItem
	variationID string
	quantity    int
	selections  SelectionState

	groupErrors map[string]string
	timers      map[string]*time.Timer
	errorTTL    time.Duration
	closed      bool
}

// New starts a configuration session for an item snapshot. If the item
// defines variations the first is pre-selected as the default.
func New(item *models.MenuItem) *Configurator {
	return &Configurator{
		item:        item,
		variationID: item.DefaultVariationID(),
		quantity:    1,
		selections:  make(SelectionState),
		groupErrors: make(map[string]string),
		timers:      make(map[string]*time.Timer),
		errorTTL:    groupErrorTTL,
	}
}

// Item returns the menu item snapshot this session configures.
func (c *Configurator) Item() *models.MenuItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.item
}

// SelectVariation changes the selected variation. Unknown ids are ignored.
func (c *Configurator) SelectVariation(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.item.FindVariation(id) != nil {
		c.variationID = id
	}
}

// SetQuantity sets the item quantity, floored at 1.
func (c *Configurator) SetQuantity(q int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if q < 1 {
		q = 1
	}
	c.quantity = q
}

// Toggle flips a toggle option and handles the transient group-full error.
func (c *Configurator) Toggle(groupID, optionID string) ChangeOutcome {
	return c.change(groupID, optionID, SelectionState.Toggle)
}

// Increment steps an option's quantity up by one.
func (c *Configurator) Increment(groupID, optionID string) ChangeOutcome {
	return c.change(groupID, optionID, SelectionState.Increment)
}

// Decrement steps an option's quantity down by one.
func (c *Configurator) Decrement(groupID, optionID string) ChangeOutcome {
	return c.change(groupID, optionID, SelectionState.Decrement)
}

func (c *Configurator) change(groupID, optionID string, apply func(SelectionState, *models.OptionGroup, *models.Option) ChangeOutcome) ChangeOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	group := c.item.FindGroup(groupID)
	if group == nil || !group.IsActive {
		return ChangeIgnored
	}
	option := group.FindOption(optionID)
	if option == nil || !option.IsActive {
		return ChangeIgnored
	}

	outcome := apply(c.selections, group, option)
	switch outcome {
	case ChangeGroupFull:
		c.setGroupErrorLocked(group)
	case ChangeApplied:
		// Any successful interaction with the group supersedes a pending
		// error and its timer.
		c.clearGroupErrorLocked(groupID)
	}
	return outcome
}

func (c *Configurator) setGroupErrorLocked(group *models.OptionGroup) {
	if c.closed {
		return
	}
	c.groupErrors[group.ID] = maxSelectionsMessage(group)
	// Replace, never stack: a second rejection within the window restarts
	// the clock instead of leaking a timer.
	if t, ok := c.timers[group.ID]; ok {
		t.Stop()
	}
	groupID := group.ID
	c.timers[groupID] = time.AfterFunc(c.errorTTL, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.groupErrors, groupID)
		delete(c.timers, groupID)
	})
}

func (c *Configurator) clearGroupErrorLocked(groupID string) {
	if t, ok := c.timers[groupID]; ok {
		t.Stop()
		delete(c.timers, groupID)
	}
	delete(c.groupErrors, groupID)
}

// GroupError returns the transient error message for a group, if any.
func (c *Configurator) GroupError(groupID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg, ok := c.groupErrors[groupID]
	return msg, ok
}

// Validate runs the cardinality rules over the current selections.
func (c *Configurator) Validate() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Validate(c.item, c.selections)
}

// Total returns the advisory preview price for the current configuration.
func (c *Configurator) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ComputeTotal(c.item, c.variationID, c.selections, c.quantity)
}

// Snapshot returns the current variation, selections and quantity.
func (c *Configurator) Snapshot() (string, SelectionState, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.variationID, c.selections.Clone(), c.quantity
}

// SelectedOptions flattens the selection state into the wire shape used by
// cart and offer submissions, ordered by group then option id so the output
// is stable.
func (c *Configurator) SelectedOptions() []models.CartItemOption {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []models.CartItemOption
	groupIDs := make([]string, 0, len(c.selections))
	for gid := range c.selections {
		groupIDs = append(groupIDs, gid)
	}
	sort.Strings(groupIDs)
	for _, gid := range groupIDs {
		optionIDs := make([]string, 0, len(c.selections[gid]))
		for oid := range c.selections[gid] {
			optionIDs = append(optionIDs, oid)
		}
		sort.Strings(optionIDs)
		for _, oid := range optionIDs {
			out = append(out, models.CartItemOption{
				GroupID:  gid,
				OptionID: oid,
				Quantity: c.selections[gid][oid],
			})
		}
	}
	return out
}

// Close stops every pending auto-clear timer. Must be called on teardown so
// no timer fires into a session that is gone.
func (c *Configurator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for gid, t := range c.timers {
		t.Stop()
		delete(c.timers, gid)
	}
	c.groupErrors = make(map[string]string)
}
