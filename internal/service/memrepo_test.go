package service_test

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/restaurant-backoffice/internal/model"
	"github.com/mmeshcher/restaurant-backoffice/internal/repository"
	"github.com/mmeshcher/restaurant-backoffice/internal/service"
)

// memRepo хранит данные в памяти и откатывает изменения транзакции при ошибке.
type memRepo struct {
	nextID   int64
	products map[int64]model.Product
	clients  map[int64]model.Client
	orders   map[int64]model.Order
	items    map[int64]model.LineItem

	setTotalErr error
	txCount     int
}

func newMemRepo() *memRepo {
	return &memRepo{
		products: map[int64]model.Product{},
		clients:  map[int64]model.Client{},
		orders:   map[int64]model.Order{},
		items:    map[int64]model.LineItem{},
	}
}

func (r *memRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *memRepo) Close() error                   { return nil }
func (r *memRepo) Ping(ctx context.Context) error { return nil }

func (r *memRepo) CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	p := model.Product{ID: r.id(), Name: in.Name, Price: in.Price, Status: in.Status, Description: in.Description}
	r.products[p.ID] = p
	return &p, nil
}

func (r *memRepo) ListProducts(ctx context.Context) ([]model.Product, error) {
	res := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		res = append(res, p)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (r *memRepo) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (r *memRepo) UpdateProduct(ctx context.Context, id int64, in model.ProductInput) (*model.Product, error) {
	if _, ok := r.products[id]; !ok {
		return nil, repository.ErrProductNotFound
	}
	p := model.Product{ID: id, Name: in.Name, Price: in.Price, Status: in.Status, Description: in.Description}
	r.products[id] = p
	return &p, nil
}

func (r *memRepo) DeleteProduct(ctx context.Context, id int64) error {
	if _, ok := r.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	for _, it := range r.items {
		if it.ProductID == id {
			return repository.ErrProductInUse
		}
	}
	delete(r.products, id)
	return nil
}

func (r *memRepo) CreateClient(ctx context.Context, in model.ClientInput) (*model.Client, error) {
	c := model.Client{ID: r.id(), Name: in.Name, LastName: in.LastName, Phone: in.Phone, Email: in.Email}
	r.clients[c.ID] = c
	return &c, nil
}

func (r *memRepo) ListClients(ctx context.Context) ([]model.Client, error) {
	res := make([]model.Client, 0, len(r.clients))
	for _, c := range r.clients {
		res = append(res, c)
	}
	return res, nil
}

func (r *memRepo) GetClient(ctx context.Context, id int64) (*model.Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, repository.ErrClientNotFound
	}
	return &c, nil
}

func (r *memRepo) UpdateClient(ctx context.Context, id int64, in model.ClientInput) (*model.Client, error) {
	if _, ok := r.clients[id]; !ok {
		return nil, repository.ErrClientNotFound
	}
	c := model.Client{ID: id, Name: in.Name, LastName: in.LastName, Phone: in.Phone, Email: in.Email}
	r.clients[id] = c
	return &c, nil
}

func (r *memRepo) DeleteClient(ctx context.Context, id int64) error {
	if _, ok := r.clients[id]; !ok {
		return repository.ErrClientNotFound
	}
	for _, o := range r.orders {
		if o.ClientID == id {
			return repository.ErrClientInUse
		}
	}
	delete(r.clients, id)
	return nil
}

func (r *memRepo) CreateOrder(ctx context.Context, in model.OrderInput) (*model.Order, error) {
	if _, ok := r.clients[in.ClientID]; !ok {
		return nil, repository.ErrClientNotFound
	}
	o := model.Order{
		ID:            r.id(),
		Date:          in.Date,
		Total:         decimal.Zero,
		PaymentMethod: in.PaymentMethod,
		Status:        in.Status,
		ClientID:      in.ClientID,
	}
	r.orders[o.ID] = o
	return &o, nil
}

func (r *memRepo) ListOrders(ctx context.Context) ([]model.Order, error) {
	res := make([]model.Order, 0, len(r.orders))
	for _, o := range r.orders {
		res = append(res, o)
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Date.Equal(res[j].Date) {
			return res[i].Date.After(res[j].Date)
		}
		return res[i].ID > res[j].ID
	})
	return res, nil
}

func (r *memRepo) GetOrderDetails(ctx context.Context, id int64) (*model.OrderDetails, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	d := &model.OrderDetails{Order: o, ClientName: r.clients[o.ClientID].Name, Items: []model.LineItem{}}
	for _, it := range r.items {
		if it.OrderID == id {
			d.Items = append(d.Items, it)
		}
	}
	sort.Slice(d.Items, func(i, j int) bool { return d.Items[i].ID < d.Items[j].ID })
	return d, nil
}

func (r *memRepo) UpdateOrder(ctx context.Context, id int64, in model.OrderInput) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	if _, ok := r.clients[in.ClientID]; !ok {
		return nil, repository.ErrClientNotFound
	}
	o.Date = in.Date
	o.ClientID = in.ClientID
	o.PaymentMethod = in.PaymentMethod
	o.Status = in.Status
	r.orders[id] = o
	return &o, nil
}

func (r *memRepo) GetLineItem(ctx context.Context, id int64) (*model.LineItem, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, repository.ErrLineItemNotFound
	}
	return &it, nil
}

type memSnapshot struct {
	nextID int64
	orders map[int64]model.Order
	items  map[int64]model.LineItem
}

func (r *memRepo) snapshot() memSnapshot {
	s := memSnapshot{nextID: r.nextID, orders: map[int64]model.Order{}, items: map[int64]model.LineItem{}}
	for k, v := range r.orders {
		s.orders[k] = v
	}
	for k, v := range r.items {
		s.items[k] = v
	}
	return s
}

func (r *memRepo) InTx(ctx context.Context, fn func(tx service.Tx) error) error {
	r.txCount++
	snap := r.snapshot()
	if err := fn(memTx{r: r}); err != nil {
		r.nextID, r.orders, r.items = snap.nextID, snap.orders, snap.items
		return err
	}
	return nil
}

// sumSubtotals вычисляет сумму подытогов заказа напрямую по позициям.
func (r *memRepo) sumSubtotals(orderID int64) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range r.items {
		if it.OrderID == orderID {
			sum = sum.Add(it.Subtotal)
		}
	}
	return sum
}

type memTx struct {
	r *memRepo
}

func (t memTx) LockOrder(ctx context.Context, id int64) (*model.Order, error) {
	o, ok := t.r.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return &o, nil
}

func (t memTx) SetOrderTotal(ctx context.Context, orderID int64, total decimal.Decimal) error {
	if t.r.setTotalErr != nil {
		return t.r.setTotalErr
	}
	o := t.r.orders[orderID]
	o.Total = total
	t.r.orders[orderID] = o
	return nil
}

func (t memTx) DeleteOrder(ctx context.Context, id int64) error {
	if _, ok := t.r.orders[id]; !ok {
		return repository.ErrOrderNotFound
	}
	delete(t.r.orders, id)
	return nil
}

func (t memTx) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return t.r.GetProduct(ctx, id)
}

func (t memTx) GetLineItem(ctx context.Context, id int64) (*model.LineItem, error) {
	return t.r.GetLineItem(ctx, id)
}

func (t memTx) InsertLineItem(ctx context.Context, item *model.LineItem) error {
	item.ID = t.r.id()
	t.r.items[item.ID] = *item
	return nil
}

func (t memTx) UpdateLineItem(ctx context.Context, item *model.LineItem) error {
	if _, ok := t.r.items[item.ID]; !ok {
		return repository.ErrLineItemNotFound
	}
	t.r.items[item.ID] = *item
	return nil
}

func (t memTx) DeleteLineItem(ctx context.Context, id int64) error {
	if _, ok := t.r.items[id]; !ok {
		return repository.ErrLineItemNotFound
	}
	delete(t.r.items, id)
	return nil
}

func (t memTx) DeleteLineItemsByOrder(ctx context.Context, orderID int64) (int64, error) {
	var n int64
	for id, it := range t.r.items {
		if it.OrderID == orderID {
			delete(t.r.items, id)
			n++
		}
	}
	return n, nil
}

func (t memTx) SumLineItems(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	return t.r.sumSubtotals(orderID), nil
}

var testDate = time.Date(2024, 3, 15, 19, 30, 0, 0, time.UTC)
