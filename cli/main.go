package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#0a84ff")).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#30d158")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)
)

// Model defines the application state
type Model struct {
	mainMenu    list.Model
	slotList    list.Model
	addressList list.Model
	offerList   list.Model
	checkout    CheckoutView
	textInput   textinput.Model
	spinner     spinner.Model
	client      *ApiClient
	orderID     string
	pendingMode string
	currentView string
	error       string
	notice      string
}

// item represents a list item
type item struct {
	title, desc string
	id          string
}

// FilterValue implements list.Item interface
func (i item) FilterValue() string { return i.title }

// Title implements list.Item interface
func (i item) Title() string { return i.title }

// Description implements list.Item interface
func (i item) Description() string { return i.desc }

// Initialize the model
func initialModel() Model {
	// Initialize spinner
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	// Initialize main menu items
	items := []list.Item{
		item{title: "Checkout", desc: "View the current checkout and its wizard position"},
		item{title: "Pickup Slots", desc: "Choose a pickup time or ASAP"},
		item{title: "Delivery", desc: "Switch to delivery and pick an address"},
		item{title: "Tip", desc: "Set the tip amount"},
		item{title: "Payment", desc: "Choose online or offline payment"},
		item{title: "Offers", desc: "Browse and apply eligible offers"},
		item{title: "Confirm Order", desc: "Place the order"},
		item{title: "Exit", desc: "Exit the application"},
	}

	// Initialize main menu
	mainMenu := list.New(items, list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "Bistro CLI"

	slotList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	slotList.Title = "Pickup Slots"

	addressList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	addressList.Title = "Saved Addresses"

	offerList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	offerList.Title = "Offers"

	// Initialize text input
	ti := textinput.New()
	ti.Placeholder = "Tip amount..."
	ti.CharLimit = 10
	ti.Width = 20

	orderID := os.Getenv("BISTRO_ORDER_ID")
	if orderID == "" {
		orderID = "order-demo"
	}

	return Model{
		mainMenu:    mainMenu,
		slotList:    slotList,
		addressList: addressList,
		offerList:   offerList,
		spinner:     s,
		textInput:   ti,
		client:      NewApiClient(),
		orderID:     orderID,
		currentView: "main",
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.EnterAltScreen, attachCheckout(m.client, m.orderID))
}

// Update handles UI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.currentView == "main" {
				return m, tea.Quit
			}
		case "enter":
			switch m.currentView {
			case "main":
				if selected, ok := m.mainMenu.SelectedItem().(item); ok {
					return m.handleMenuChoice(selected.title)
				}
			case "slots":
				if selected, ok := m.slotList.SelectedItem().(item); ok {
					m.currentView = "checkout"
					return m, setMode(m.client, m.orderID, "pickup", selected.id)
				}
			case "addresses":
				if selected, ok := m.addressList.SelectedItem().(item); ok {
					m.currentView = "checkout"
					return m, selectAddress(m.client, m.orderID, selected.id)
				}
			case "offers":
				if selected, ok := m.offerList.SelectedItem().(item); ok {
					m.currentView = "checkout"
					return m, applyOffer(m.client, m.orderID, selected.id)
				}
			case "tip":
				amount, err := strconv.ParseFloat(m.textInput.Value(), 64)
				if err != nil {
					m.error = "Enter a number, e.g. 2.50"
					return m, nil
				}
				m.currentView = "checkout"
				return m, setTip(m.client, m.orderID, amount)
			case "checkout":
				m.currentView = "main"
				return m, nil
			}
		case "esc":
			if m.currentView != "main" {
				m.currentView = "main"
				m.error = ""
			}
		case "a":
			if m.currentView == "slots" {
				// ASAP: no slot, the server stamps the current time
				m.currentView = "checkout"
				return m, setMode(m.client, m.orderID, "pickup", "")
			}
		case "o", "f":
			if m.currentView == "payment" {
				method := "online"
				if msg.String() == "f" {
					method = "offline"
				}
				m.currentView = "checkout"
				return m, setPayment(m.client, m.orderID, method)
			}
		case "r":
			if m.currentView == "checkout" {
				return m, refreshCheckout(m.client, m.orderID)
			}
		case "x":
			if m.currentView == "checkout" {
				return m, removeOffer(m.client, m.orderID)
			}
		}
	case checkoutMsg:
		m.checkout = msg.view
		m.error = ""
		return m, nil
	case slotsMsg:
		m.slotList.SetItems(convertSlotsToItems(msg.slots))
		m.currentView = "slots"
		return m, nil
	case addressesMsg:
		m.addressList.SetItems(convertAddressesToItems(msg.addresses))
		m.currentView = "addresses"
		return m, nil
	case offersMsg:
		m.offerList.SetItems(convertOffersToItems(msg.offers))
		m.currentView = "offers"
		return m, nil
	case errorMsg:
		m.error = msg.err
		return m, nil
	case confirmMsg:
		m.notice = msg.message
		return m, refreshCheckout(m.client, m.orderID)
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.mainMenu.SetSize(msg.Width-h, msg.Height-v)
		m.slotList.SetSize(msg.Width-h, msg.Height-v)
		m.addressList.SetSize(msg.Width-h, msg.Height-v)
		m.offerList.SetSize(msg.Width-h, msg.Height-v)
	}

	var cmd tea.Cmd
	switch m.currentView {
	case "main":
		m.mainMenu, cmd = m.mainMenu.Update(msg)
	case "slots":
		m.slotList, cmd = m.slotList.Update(msg)
	case "addresses":
		m.addressList, cmd = m.addressList.Update(msg)
	case "offers":
		m.offerList, cmd = m.offerList.Update(msg)
	case "tip":
		m.textInput, cmd = m.textInput.Update(msg)
	}

	return m, cmd
}

// handleMenuChoice dispatches a main menu selection
func (m Model) handleMenuChoice(title string) (tea.Model, tea.Cmd) {
	switch title {
	case "Exit":
		return m, tea.Quit
	case "Checkout":
		m.currentView = "checkout"
		return m, refreshCheckout(m.client, m.orderID)
	case "Pickup Slots":
		m.pendingMode = "pickup"
		return m, fetchSlots(m.client, m.orderID, "pickup")
	case "Delivery":
		m.pendingMode = "delivery"
		return m, tea.Sequence(
			setMode(m.client, m.orderID, "delivery", ""),
			fetchAddresses(m.client, m.orderID),
		)
	case "Tip":
		m.currentView = "tip"
		m.textInput.SetValue("")
		m.textInput.Focus()
		return m, nil
	case "Payment":
		m.currentView = "payment"
		return m, nil
	case "Offers":
		return m, fetchOffers(m.client, m.orderID)
	case "Confirm Order":
		m.currentView = "checkout"
		return m, confirmOrder(m.client, m.orderID)
	}
	return m, nil
}

// View renders the UI
func (m Model) View() string {
	switch m.currentView {
	case "main":
		return docStyle.Render(m.mainMenu.View())
	case "checkout":
		return docStyle.Render(checkoutDetailView(m))
	case "slots":
		help := "\nPress 'enter' to schedule, 'a' for ASAP, 'esc' to go back\n"
		if m.error != "" {
			help += errorStyle.Render(m.error) + "\n"
		}
		return docStyle.Render(titleStyle.Render("Pickup Slots") + "\n\n" + m.slotList.View() + help)
	case "addresses":
		help := "\nPress 'enter' to deliver to an address, 'esc' to go back\n"
		if m.error != "" {
			help += errorStyle.Render(m.error) + "\n"
		}
		return docStyle.Render(titleStyle.Render("Saved Addresses") + "\n\n" + m.addressList.View() + help)
	case "offers":
		help := "\nPress 'enter' to apply an offer, 'esc' to go back\n"
		if m.error != "" {
			help += errorStyle.Render(m.error) + "\n"
		}
		return docStyle.Render(titleStyle.Render("Offers") + "\n\n" + m.offerList.View() + help)
	case "tip":
		help := "\nPress 'enter' to set the tip, 'esc' to cancel\n"
		if m.error != "" {
			help += errorStyle.Render(m.error) + "\n"
		}
		return docStyle.Render(titleStyle.Render("Tip") + "\n\n" + m.textInput.View() + help)
	case "payment":
		view := titleStyle.Render("Payment Method") + "\n\n"
		view += "Press 'o' to pay online\n"
		view += "Press 'f' to pay at pickup / on delivery\n"
		view += "\nPress 'esc' to go back"
		return docStyle.Render(view)
	default:
		return "Loading..."
	}
}

// Custom message types for the tea.Model
type checkoutMsg struct {
	view CheckoutView
}

type slotsMsg struct {
	slots []string
}

type addressesMsg struct {
	addresses []Address
}

type offersMsg struct {
	offers []Offer
}

type errorMsg struct {
	err string
}

type confirmMsg struct {
	message string
}

// attachCheckout attaches the storefront to the order
func attachCheckout(client *ApiClient, orderID string) tea.Cmd {
	return func() tea.Msg {
		view, err := client.Attach(orderID)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error attaching checkout: %v", err)}
		}
		return checkoutMsg{view: *view}
	}
}

// refreshCheckout re-fetches the checkout view
func refreshCheckout(client *ApiClient, orderID string) tea.Cmd {
	return func() tea.Msg {
		view, err := client.GetCheckout(orderID)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching checkout: %v", err)}
		}
		return checkoutMsg{view: *view}
	}
}

func fetchSlots(client *ApiClient, orderID, mode string) tea.Cmd {
	return func() tea.Msg {
		slots, err := client.GetSlots(orderID, mode)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching slots: %v", err)}
		}
		return slotsMsg{slots: slots}
	}
}

func setMode(client *ApiClient, orderID, mode, slot string) tea.Cmd {
	return func() tea.Msg {
		view, err := client.SetMode(orderID, mode, slot)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error setting order mode: %v", err)}
		}
		return checkoutMsg{view: *view}
	}
}

func fetchAddresses(client *ApiClient, orderID string) tea.Cmd {
	return func() tea.Msg {
		addresses, err := client.GetAddresses(orderID)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching addresses: %v", err)}
		}
		return addressesMsg{addresses: addresses}
	}
}

func selectAddress(client *ApiClient, orderID, addressID string) tea.Cmd {
	return func() tea.Msg {
		view, err := client.SelectAddress(orderID, addressID)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error selecting address: %v", err)}
		}
		return checkoutMsg{view: *view}
	}
}

func setTip(client *ApiClient, orderID string, amount float64) tea.Cmd {
	return func() tea.Msg {
		view, err := client.SetTip(orderID, amount)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error setting tip: %v", err)}
		}
		return checkoutMsg{view: *view}
	}
}

func setPayment(client *ApiClient, orderID, method string) tea.Cmd {
	return func() tea.Msg {
		view, err := client.SetPaymentMethod(orderID, method)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error setting payment method: %v", err)}
		}
		return checkoutMsg{view: *view}
	}
}

func fetchOffers(client *ApiClient, orderID string) tea.Cmd {
	return func() tea.Msg {
		offers, err := client.GetOffers(orderID)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching offers: %v", err)}
		}
		return offersMsg{offers: offers}
	}
}

func applyOffer(client *ApiClient, orderID, offerID string) tea.Cmd {
	return func() tea.Msg {
		offers, err := client.GetOffers(orderID)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error applying offer: %v", err)}
		}
		for _, offer := range offers {
			if offer.ID != offerID {
				continue
			}
			if offer.Type == "FREE_ITEM_ADDITION" {
				return errorMsg{err: "Free item offers need the web configurator"}
			}
			view, err := client.ApplyOffer(orderID, offer)
			if err != nil {
				return errorMsg{err: fmt.Sprintf("Error applying offer: %v", err)}
			}
			return checkoutMsg{view: *view}
		}
		return errorMsg{err: "Offer is no longer available"}
	}
}

func removeOffer(client *ApiClient, orderID string) tea.Cmd {
	return func() tea.Msg {
		view, err := client.RemoveOffer(orderID)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error removing offer: %v", err)}
		}
		return checkoutMsg{view: *view}
	}
}

func confirmOrder(client *ApiClient, orderID string) tea.Cmd {
	return func() tea.Msg {
		view, err := client.Confirm(orderID)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error confirming order: %v", err)}
		}
		return checkoutMsg{view: *view}
	}
}

// convertSlotsToItems converts slot strings to list items
func convertSlotsToItems(slots []string) []list.Item {
	items := make([]list.Item, len(slots))
	for i, slot := range slots {
		items[i] = item{id: slot, title: slot, desc: "Pickup at " + slot}
	}
	return items
}

// convertAddressesToItems converts API addresses to list items
func convertAddressesToItems(addresses []Address) []list.Item {
	items := make([]list.Item, len(addresses))
	for i, addr := range addresses {
		items[i] = item{
			id:    addr.ID,
			title: addr.Name,
			desc:  fmt.Sprintf("%s, %s %s - %s", addr.Street, addr.City, addr.ZipCode, addr.State),
		}
	}
	return items
}

// convertOffersToItems converts API offers to list items
func convertOffersToItems(offers []Offer) []list.Item {
	items := make([]list.Item, len(offers))
	for i, offer := range offers {
		items[i] = item{
			id:    offer.ID,
			title: fmt.Sprintf("%s (%s)", offer.Name, offer.Code),
			desc:  offer.Type,
		}
	}
	return items
}

// checkoutDetailView renders the checkout summary
func checkoutDetailView(m Model) string {
	s := m.checkout.Session
	view := titleStyle.Render(fmt.Sprintf("Checkout %s", s.OrderID)) + "\n\n"

	switch s.Status {
	case "confirmed":
		view += successStyle.Render("Order confirmed") + "\n\n"
	case "cancelled":
		view += errorStyle.Render("Order cancelled") + "\n\n"
	}

	mode := s.Mode
	if mode == "" {
		mode = "not chosen"
	}
	view += fmt.Sprintf("Mode: %s\n", mode)
	if s.Mode == "pickup" && s.PickupTime != nil {
		view += fmt.Sprintf("Pickup at: %s\n", s.PickupTime.Format(time.Kitchen))
	}
	if s.Mode == "delivery" {
		if s.PickupTime == nil {
			view += "Delivery: ASAP\n"
		} else {
			view += fmt.Sprintf("Delivery at: %s\n", s.PickupTime.Format(time.Kitchen))
		}
		if s.SelectedAddress != nil {
			view += fmt.Sprintf("Address: %s, %s\n", s.SelectedAddress.Street, s.SelectedAddress.City)
		}
		if s.DeliveryProvider != "" {
			view += fmt.Sprintf("Provider: %s\n", s.DeliveryProvider)
		}
	}

	view += fmt.Sprintf("Step: %d of 3 (%s)\n", m.checkout.Steps.Active, m.checkout.Steps.Phase)
	if m.checkout.InFlight {
		view += infoStyle.Render("Updating...") + "\n"
	}

	view += "\nItems:\n"
	for i, line := range s.Items {
		view += fmt.Sprintf("%d. %s (x%d) - %.2f\n", i+1, line.Name, line.Quantity, line.LineTotal)
	}

	inv := s.Invoice
	view += fmt.Sprintf("\nSubtotal: %.2f\n", inv.Subtotal)
	if inv.Discount > 0 {
		view += fmt.Sprintf("Discount: -%.2f (%s)\n", inv.Discount, inv.AppliedOffer)
	}
	view += fmt.Sprintf("Tax: %.2f\n", inv.Tax)
	if inv.DeliveryFee > 0 {
		view += fmt.Sprintf("Delivery fee: %.2f\n", inv.DeliveryFee)
	}
	if inv.Tip > 0 {
		view += fmt.Sprintf("Tip: %.2f\n", inv.Tip)
	}
	view += fmt.Sprintf("Total: %.2f\n", inv.Total)
	if inv.PaymentMethod != "" {
		view += fmt.Sprintf("Paying: %s\n", inv.PaymentMethod)
	}

	if m.notice != "" {
		view += "\n" + successStyle.Render(m.notice) + "\n"
	}
	if m.error != "" {
		view += "\n" + errorStyle.Render(m.error) + "\n"
	}

	view += "\nPress 'r' to refresh, 'x' to remove the offer, 'esc' for the menu"
	return view
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v", err)
		os.Exit(1)
	}
}
