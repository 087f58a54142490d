package funnel

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/domain"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/infra/observability"
	"github.com/Shetty-boy/Omnichannel-Agent-AI/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("funnel")

// recommendationLimit caps how many products a discovery round shows.
const recommendationLimit = 5

// defaultPickupLocation is used when the customer never named a store.
const defaultPickupLocation = "Phoenix Mall"

// orderIDPattern recognizes an order identifier inside free text. It is the
// fallback for order collaborators that only return prose; the typed
// OrderResult.OrderID field is authoritative when set.
var orderIDPattern = regexp.MustCompile(`ORD-[A-Za-z0-9]+`)

// ExtractOrderID returns the first order identifier found in raw text, or ""
// when none is present.
func ExtractOrderID(raw string) string {
	return orderIDPattern.FindString(raw)
}

// Rule names, used for logging and metrics labels.
const (
	rulePostPurchase = "post_purchase"
	ruleSelection    = "selection"
	ruleClarify      = "availability_clarify"
	ruleStockCheck   = "stock_check"
	ruleReserve      = "reserve"
	ruleLoyalty      = "loyalty"
	rulePayment      = "payment"
	ruleDiscovery    = "discovery"
	ruleFallback     = "fallback"
)

// Orchestrator is the funnel state machine. HandleTurn is a total function:
// it always produces a reply, converts collaborator failures into apologetic
// replies, and leaves the session untouched when a call fails so the
// customer can retry the same turn.
type Orchestrator struct {
	catalog      port.Catalog
	inventory    port.Inventory
	orders       port.Orders
	payments     port.Payments
	loyalty      port.Loyalty
	postPurchase port.PostPurchase
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewOrchestrator creates the funnel orchestrator with all collaborators
// injected.
func NewOrchestrator(
	catalog port.Catalog,
	inventory port.Inventory,
	orders port.Orders,
	payments port.Payments,
	loyalty port.Loyalty,
	postPurchase port.PostPurchase,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		catalog:      catalog,
		inventory:    inventory,
		orders:       orders,
		payments:     payments,
		loyalty:      loyalty,
		postPurchase: postPurchase,
		metrics:      metrics,
		logger:       logger,
	}
}

// Turn is the structured outcome of one HandleTurn call, handed to the
// optional reply phraser by the turn service.
type Turn struct {
	Rule  string
	Reply string
	Facts []string
}

// HandleTurn advances the funnel by one customer message. The message
// predicates are evaluated in a fixed priority order; the first match wins.
// The session is mutated in place and is always left in a legal stage.
func (o *Orchestrator) HandleTurn(ctx context.Context, message string, sess *domain.Session) *Turn {
	ctx, span := tracer.Start(ctx, "Orchestrator.HandleTurn")
	defer span.End()

	start := time.Now()
	if sess.Stage == "" {
		sess.Stage = domain.StageBrowsing
	}
	if sess.CustomerID == "" {
		sess.CustomerID = domain.GuestCustomerID
	}
	before := sess.Stage

	turn := o.dispatch(ctx, message, sess)

	sess.UpdatedAt = time.Now().UTC()
	span.SetAttributes(
		attribute.String("funnel.rule", turn.Rule),
		attribute.String("funnel.stage", string(sess.Stage)),
	)
	o.metrics.IncrTurn(turn.Rule)
	if sess.Stage != before {
		o.metrics.IncrStageTransition(string(before), string(sess.Stage))
	}
	o.metrics.RecordTurnDuration(turn.Rule, time.Since(start))
	o.logger.Info("turn handled",
		zap.String("customer_id", sess.CustomerID),
		zap.String("rule", turn.Rule),
		zap.String("stage_before", string(before)),
		zap.String("stage_after", string(sess.Stage)),
	)
	return turn
}

func (o *Orchestrator) dispatch(ctx context.Context, message string, sess *domain.Session) *Turn {
	// Rule 1: post-purchase requests are orthogonal to the funnel and win
	// over everything once an order exists.
	if ppType, ok := postPurchaseIntent(message); ok {
		return o.handlePostPurchase(ctx, ppType, message, sess)
	}

	// Topic-change reset: a message that resolves to a different category
	// while the session sits in a browsing-adjacent stage restarts
	// discovery. Without this, "show me sarees instead" would be fed to the
	// selection parser and swallowed by the stale recommendation list.
	if cat, ok := ResolveCategory(message); ok && cat != sess.LastCategory && browsingAdjacent(sess.Stage) {
		o.logger.Debug("topic change, restarting discovery round",
			zap.String("customer_id", sess.CustomerID),
			zap.String("old_category", sess.LastCategory),
			zap.String("new_category", cat),
		)
		return o.handleDiscovery(ctx, cat, sess)
	}

	// Rule 2: waiting for the customer to pick from the shown list.
	if sess.Stage == domain.StageAwaitingSelection {
		return o.handleSelection(ctx, message, sess)
	}

	// Rule 3: a bare confirmation during the availability step is a
	// clarifying sub-step, not a transition.
	if sess.Stage == domain.StageAvailability && isAffirmation(message) && !mentionsStore(message) {
		// A bare "yes" asks for clarification; a message that also names a
		// store falls through to the stock check below.
		return &Turn{
			Rule: ruleClarify,
			Reply: fmt.Sprintf("Great! Would you like to check availability at a nearby store for the %s, or should I arrange delivery?",
				selectedName(sess)),
		}
	}

	// Rule 4: store/location keyword triggers a stock check for the
	// selected product, whatever the stage.
	if mentionsStore(message) && sess.Selected != nil {
		return o.handleStockCheck(ctx, sess)
	}

	// Rule 5: confirmation while awaiting reservation places the order.
	if sess.Stage == domain.StageConfirmReservation && isAffirmation(message) {
		return o.handleReservation(ctx, sess)
	}

	// Rule 6: loyalty pricing runs on any input once the order exists.
	if sess.Stage == domain.StageLoyalty {
		return o.handleLoyalty(ctx, message, sess)
	}

	// Rule 7: the raw message is the payment method label.
	if sess.Stage == domain.StagePayment {
		return o.handlePayment(ctx, message, sess)
	}

	// Rule 8: category fallback starts a new discovery round.
	if cat, ok := ResolveCategory(message); ok {
		return o.handleDiscovery(ctx, cat, sess)
	}

	// Rule 9: default.
	return &Turn{
		Rule:  ruleFallback,
		Reply: "How can I help you today? You can ask me for product suggestions, stock at nearby stores, or help with an existing order.",
	}
}

// browsingAdjacent reports whether the stage belongs to the pre-order part
// of the funnel, where a topic change restarts discovery. Once an order is
// being placed or paid, category words in a message no longer reset state.
func browsingAdjacent(s domain.Stage) bool {
	return s == domain.StageAwaitingSelection || s == domain.StageAvailability
}

func selectedName(sess *domain.Session) string {
	if sess.Selected == nil {
		return "selected item"
	}
	return sess.Selected.Name
}

// --- Rule handlers ---

func (o *Orchestrator) handlePostPurchase(ctx context.Context, ppType domain.PostPurchaseType, message string, sess *domain.Session) *Turn {
	if sess.OrderID == "" {
		return &Turn{
			Rule:  rulePostPurchase,
			Reply: "I can help with tracking, returns and feedback, but I couldn't find an order on this conversation. Could you share your order ID (it looks like ORD-XXXXXXXX)?",
		}
	}

	req := &domain.PostPurchaseRequest{
		Type:    ppType,
		OrderID: sess.OrderID,
		Details: message,
	}
	if ppType == domain.PostPurchaseFeedback {
		req.Rating = parseRating(message)
	}

	result, err := o.postPurchase.Act(ctx, req)
	if err != nil {
		return o.apologize(ctx, "post_purchase", err)
	}
	// Post-purchase never touches the funnel stage: the customer can keep
	// shopping from wherever they were.
	return &Turn{
		Rule:  rulePostPurchase,
		Reply: result,
		Facts: []string{"order_id=" + sess.OrderID, "request=" + string(ppType)},
	}
}

func (o *Orchestrator) handleSelection(ctx context.Context, message string, sess *domain.Session) *Turn {
	picked := ParseSelection(message, sess.Recommendations)
	if picked == nil {
		return &Turn{
			Rule: ruleSelection,
			Reply: fmt.Sprintf("Sorry, I didn't catch which one you meant. Please reply with a number between 1 and %d, or the product name.",
				len(sess.Recommendations)),
		}
	}

	sess.Selected = picked
	if err := sess.Advance(domain.StageAvailability); err != nil {
		return o.stateFault(err, sess)
	}
	return &Turn{
		Rule: ruleSelection,
		Reply: fmt.Sprintf("Nice choice! %s at ₹%.0f. Shall I check availability at a store near you?",
			picked.Name, picked.Price),
		Facts: []string{"product=" + picked.Name, fmt.Sprintf("price=%.2f", picked.Price)},
	}
}

func (o *Orchestrator) handleStockCheck(ctx context.Context, sess *domain.Session) *Turn {
	report, err := o.inventory.Check(ctx, sess.Selected.ProductID)
	if err != nil {
		return o.apologize(ctx, "inventory", err)
	}

	if report.Status != domain.StockInStock {
		// Stay at AVAILABILITY so the customer can pick something else or
		// ask about another store.
		return &Turn{
			Rule: ruleStockCheck,
			Reply: fmt.Sprintf("I'm sorry, %s is currently out of stock at our stores. Would you like to look at something else?",
				selectedName(sess)),
			Facts: []string{"status=" + string(report.Status)},
		}
	}

	if err := sess.Advance(domain.StageConfirmReservation); err != nil {
		// A stock question from a later stage is answered without moving
		// the funnel backwards.
		o.logger.Debug("stock check without transition", zap.Error(err))
	}

	// Sorted so the reply and facts are stable run to run.
	locations := make([]string, 0, len(report.Locations))
	for loc := range report.Locations {
		locations = append(locations, loc)
	}
	sort.Strings(locations)

	var b strings.Builder
	fmt.Fprintf(&b, "Good news — %s is in stock (%d units total):\n", selectedName(sess), report.TotalQty)
	facts := []string{fmt.Sprintf("total_qty=%d", report.TotalQty)}
	for _, loc := range locations {
		qty := report.Locations[loc]
		if qty <= 0 {
			continue
		}
		fmt.Fprintf(&b, "  • %s: %d available\n", loc, qty)
		facts = append(facts, fmt.Sprintf("%s=%d", loc, qty))
	}
	b.WriteString("Shall I reserve one for in-store pickup?")
	return &Turn{Rule: ruleStockCheck, Reply: b.String(), Facts: facts}
}

func (o *Orchestrator) handleReservation(ctx context.Context, sess *domain.Session) *Turn {
	if sess.Selected == nil {
		sess.ResetDiscovery()
		return &Turn{
			Rule:  ruleReserve,
			Reply: "It seems we lost track of the item you wanted. What are you shopping for?",
		}
	}

	result, err := o.orders.Place(ctx, &domain.OrderRequest{
		ProductID:       sess.Selected.ProductID,
		ProductName:     sess.Selected.Name,
		UnitPrice:       sess.Selected.Price,
		Quantity:        1,
		FulfillmentType: domain.FulfillmentPickup,
		Location:        defaultPickupLocation,
		CustomerID:      sess.CustomerID,
	})
	if err != nil {
		return o.apologize(ctx, "orders", err)
	}

	orderID := result.OrderID
	if orderID == "" {
		orderID = ExtractOrderID(result.Raw)
	}
	if orderID == "" {
		// No identifier means the reservation didn't go through; surface
		// the collaborator's own words and let the customer retry.
		return &Turn{Rule: ruleReserve, Reply: result.Raw}
	}

	sess.OrderID = orderID
	if err := sess.Advance(domain.StageLoyalty); err != nil {
		return o.stateFault(err, sess)
	}
	return &Turn{
		Rule: ruleReserve,
		Reply: fmt.Sprintf("Reserved! Your order %s for %s is confirmed for pickup. Before payment, let me check your coupons and loyalty points — do you have a coupon code?",
			orderID, sess.Selected.Name),
		Facts: []string{"order_id=" + orderID, "product=" + sess.Selected.Name},
	}
}

func (o *Orchestrator) handleLoyalty(ctx context.Context, message string, sess *domain.Session) *Turn {
	if sess.Selected == nil {
		sess.ResetDiscovery()
		return &Turn{
			Rule:  ruleLoyalty,
			Reply: "It seems we lost track of the item you wanted. What are you shopping for?",
		}
	}

	breakdown, err := o.loyalty.Price(ctx, &domain.PricingRequest{
		ProductID:   sess.Selected.ProductID,
		ProductName: sess.Selected.Name,
		BasePrice:   sess.Selected.Price,
		CustomerID:  sess.CustomerID,
		CouponCode:  parseCouponCode(message),
		UsePoints:   true,
	})
	if err != nil {
		return o.apologize(ctx, "loyalty", err)
	}

	if err := sess.Advance(domain.StagePayment); err != nil {
		return o.stateFault(err, sess)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here's your price for %s:\n", sess.Selected.Name)
	fmt.Fprintf(&b, "  Original: ₹%.2f\n", breakdown.Original)
	for _, line := range breakdown.Lines {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	fmt.Fprintf(&b, "  Final: ₹%.2f (you save ₹%.2f)\n", breakdown.Final, breakdown.Savings)
	b.WriteString("How would you like to pay — UPI, card, or at the POS counter?")
	return &Turn{
		Rule:  ruleLoyalty,
		Reply: b.String(),
		Facts: []string{fmt.Sprintf("final=%.2f", breakdown.Final), fmt.Sprintf("savings=%.2f", breakdown.Savings)},
	}
}

func (o *Orchestrator) handlePayment(ctx context.Context, message string, sess *domain.Session) *Turn {
	if sess.OrderID == "" {
		sess.ResetDiscovery()
		return &Turn{
			Rule:  rulePayment,
			Reply: "I don't have an order to charge yet. Let's start over — what are you shopping for?",
		}
	}

	result, err := o.payments.Pay(ctx, sess.OrderID, strings.TrimSpace(message))
	if err != nil {
		return o.apologize(ctx, "payments", err)
	}
	if !result.Succeeded {
		// Keep PAYMENT so the customer can try another method.
		return &Turn{Rule: rulePayment, Reply: result.Message}
	}

	if err := sess.Advance(domain.StageCompleted); err != nil {
		return o.stateFault(err, sess)
	}
	return &Turn{
		Rule: rulePayment,
		Reply: fmt.Sprintf("%s\nThank you for shopping with us! You can ask me anytime to track your order %s, or to arrange a return or leave feedback.",
			result.Message, sess.OrderID),
		Facts: []string{"order_id=" + sess.OrderID, "payment_id=" + result.PaymentID},
	}
}

// handleDiscovery runs a new discovery round. Category alone drives the
// search; the raw message is a full sentence and would never match a product
// name or tag. The previous round is overwritten only after the search
// succeeds with results: on a catalog failure (or an empty catalog) the
// session keeps its list, selection and stage so the customer can retry or
// carry on where they were.
func (o *Orchestrator) handleDiscovery(ctx context.Context, category string, sess *domain.Session) *Turn {
	products, err := o.catalog.Search(ctx, category, "", recommendationLimit)
	if err != nil {
		return o.apologize(ctx, "catalog", err)
	}
	if len(products) == 0 {
		return &Turn{
			Rule:  ruleDiscovery,
			Reply: fmt.Sprintf("I checked our catalog but couldn't find anything for %s right now. Anything else I can look up?", category),
		}
	}

	sess.ResetDiscovery()
	sess.Recommendations = products
	sess.LastCategory = category
	if err := sess.Advance(domain.StageAwaitingSelection); err != nil {
		return o.stateFault(err, sess)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here's what I found in %s:\n", category)
	facts := []string{"category=" + category}
	for i, p := range products {
		fmt.Fprintf(&b, "  %d. %s — ₹%.0f\n", i+1, p.Name, p.Price)
		facts = append(facts, fmt.Sprintf("%d=%s", i+1, p.Name))
	}
	b.WriteString("Which one would you like? Reply with the number or the name.")
	return &Turn{Rule: ruleDiscovery, Reply: b.String(), Facts: facts}
}

// --- Failure paths ---

// apologize converts a collaborator failure into an apologetic reply. The
// session is left exactly as it was before the failed call, so the same
// message can simply be sent again.
func (o *Orchestrator) apologize(ctx context.Context, service string, err error) *Turn {
	o.metrics.IncrExternalError(service)
	o.logger.Error("collaborator call failed",
		zap.String("service", service),
		zap.Error(err),
	)
	return &Turn{
		Rule:  ruleFallback,
		Reply: "I'm sorry, something went wrong on my side just now. Could you try that again in a moment?",
	}
}

// stateFault handles an illegal stage transition. This indicates a bug in
// the transition table rather than bad input; the session is reset to a
// known-good stage instead of being left inconsistent.
func (o *Orchestrator) stateFault(err error, sess *domain.Session) *Turn {
	o.logger.Error("illegal funnel transition", zap.Error(err), zap.String("stage", string(sess.Stage)))
	sess.ResetDiscovery()
	return &Turn{
		Rule:  ruleFallback,
		Reply: "I'm sorry, I lost my place in our conversation. Let's start fresh — what are you shopping for?",
	}
}

// parseCouponCode pulls a coupon-looking token (letters plus at least one
// digit, 4+ chars) out of the message. Loyalty treats an unknown code as "no
// discount", so a false positive here is harmless.
func parseCouponCode(message string) string {
	for _, field := range strings.Fields(message) {
		token := strings.Trim(field, ".,!?")
		if len(token) < 4 {
			continue
		}
		hasDigit, hasAlpha, clean := false, false, true
		for _, r := range token {
			switch {
			case r >= '0' && r <= '9':
				hasDigit = true
			case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
				hasAlpha = true
			default:
				clean = false
			}
		}
		if clean && hasDigit && hasAlpha {
			return strings.ToUpper(token)
		}
	}
	return ""
}
