// Package validation содержит разбор и проверку данных веб-форм.
package validation

import (
	"fmt"
	"net/mail"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/restaurant-backoffice/internal/model"
)

// Errors содержит ошибки проверки формы по именам полей.
type Errors map[string]string

// Error возвращает ошибки в виде одной строки с полями в алфавитном порядке.
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return strings.Join(parts, "; ")
}

func (e Errors) orNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Форматы даты, принимаемые формой заказа.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

const (
	maxProductName = 40
	maxDescription = 500
	maxClientName  = 25
	maxEmail       = 120
)

// ParseID разбирает положительный целочисленный идентификатор из пути запроса.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, Errors{"id": "must be a positive integer"}
	}
	return id, nil
}

// ParseProduct проверяет форму позиции меню.
func ParseProduct(form url.Values) (model.ProductInput, error) {
	errs := Errors{}
	in := model.ProductInput{
		Name:        strings.TrimSpace(form.Get("product_name")),
		Status:      model.ProductStatus(strings.TrimSpace(form.Get("status"))),
		Description: strings.TrimSpace(form.Get("description")),
	}

	requireText(errs, "product_name", in.Name, maxProductName)
	requireText(errs, "description", in.Description, maxDescription)

	switch in.Status {
	case model.ProductStatusAvailable, model.ProductStatusUnavailable:
	case "":
		errs["status"] = "is required"
	default:
		errs["status"] = fmt.Sprintf("must be %q or %q", model.ProductStatusAvailable, model.ProductStatusUnavailable)
	}

	price, ok := parseMoney(errs, "price", form.Get("price"))
	if ok {
		in.Price = price
	}

	return in, errs.orNil()
}

// ParseClient проверяет форму клиента.
func ParseClient(form url.Values) (model.ClientInput, error) {
	errs := Errors{}
	in := model.ClientInput{
		Name:     strings.TrimSpace(form.Get("client_name")),
		LastName: strings.TrimSpace(form.Get("last_name")),
		Phone:    strings.TrimSpace(form.Get("phone")),
		Email:    strings.TrimSpace(form.Get("email")),
	}

	requireText(errs, "client_name", in.Name, maxClientName)
	requireText(errs, "last_name", in.LastName, maxClientName)

	if in.Phone == "" {
		errs["phone"] = "is required"
	} else if !isPhone(in.Phone) {
		errs["phone"] = "must contain digits only"
	}

	if requireText(errs, "email", in.Email, maxEmail) {
		if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
			errs["email"] = "must be a valid email address"
		}
	}

	return in, errs.orNil()
}

// ParseOrder проверяет форму заказа. Пустая дата заменяется на now, пустой способ оплаты на наличные.
// При нулевом now пустая дата остаётся нулевой.
func ParseOrder(form url.Values, now time.Time) (model.OrderInput, error) {
	errs := Errors{}
	in := model.OrderInput{
		PaymentMethod: model.PaymentMethod(strings.TrimSpace(form.Get("payment_method"))),
		Status:        model.OrderStatus(strings.TrimSpace(form.Get("status"))),
	}

	rawDate := strings.TrimSpace(form.Get("date"))
	if rawDate == "" {
		in.Date = now
	} else if d, ok := parseDate(rawDate); ok {
		in.Date = d
	} else {
		errs["date"] = "must be a date (YYYY-MM-DD, YYYY-MM-DDTHH:MM or RFC 3339)"
	}

	if id, ok := parsePositiveInt(errs, "client_id", form.Get("client_id")); ok {
		in.ClientID = id
	}

	switch in.PaymentMethod {
	case "":
		in.PaymentMethod = model.PaymentMethodCash
	case model.PaymentMethodCash, model.PaymentMethodCard, model.PaymentMethodTransfer:
	default:
		errs["payment_method"] = "must be one of cash, card, transfer"
	}

	switch in.Status {
	case "":
		in.Status = model.OrderStatusPending
	case model.OrderStatusPending, model.OrderStatusPreparing, model.OrderStatusDelivered,
		model.OrderStatusPaid, model.OrderStatusCancelled:
	default:
		errs["status"] = "must be one of pending, preparing, delivered, paid, cancelled"
	}

	return in, errs.orNil()
}

// ParseLineItem проверяет форму позиции заказа: product_id и quantity обязательны и положительны.
func ParseLineItem(form url.Values) (model.LineItemInput, error) {
	errs := Errors{}
	var in model.LineItemInput

	if id, ok := parsePositiveInt(errs, "product_id", form.Get("product_id")); ok {
		in.ProductID = id
	}
	if q, ok := parsePositiveInt(errs, "quantity", form.Get("quantity")); ok {
		if q > 1_000_000 {
			errs["quantity"] = "is too large"
		} else {
			in.Quantity = int(q)
		}
	}

	return in, errs.orNil()
}

func requireText(errs Errors, field, value string, maxLen int) bool {
	if value == "" {
		errs[field] = "is required"
		return false
	}
	if len([]rune(value)) > maxLen {
		errs[field] = fmt.Sprintf("must be at most %d characters", maxLen)
		return false
	}
	return true
}

func parsePositiveInt(errs Errors, field, raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		errs[field] = "is required"
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		errs[field] = "must be a positive integer"
		return 0, false
	}
	return v, true
}

func parseMoney(errs Errors, field, raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		errs[field] = "is required"
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		errs[field] = "must be a number"
		return decimal.Zero, false
	}
	if v.IsNegative() {
		errs[field] = "must not be negative"
		return decimal.Zero, false
	}
	if v.Exponent() < -2 && !v.Equal(v.Round(2)) {
		errs[field] = "must have at most two decimal places"
		return decimal.Zero, false
	}
	if v.GreaterThanOrEqual(decimal.New(1, 10)) {
		errs[field] = "is too large"
		return decimal.Zero, false
	}
	return v.Round(2), true
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isPhone(phone string) bool {
	digits := 0
	for i, ch := range phone {
		switch {
		case ch >= '0' && ch <= '9':
			digits++
		case ch == '+' && i == 0:
		case ch == ' ' || ch == '-' || ch == '(' || ch == ')':
		default:
			return false
		}
	}
	return digits >= 5
}
