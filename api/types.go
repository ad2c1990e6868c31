package api

import "matchbook/domain/book"

// SubmitOrderRequest is the JSON body of POST /api/v1/orders.
type SubmitOrderRequest struct {
	Side   string `json:"side"` // "buy" or "sell"
	Symbol string `json:"symbol"`
	Qty    int64  `json:"qty"`
	Price  int64  `json:"price"` // integer ticks
}

// TradeView is one execution as reported to clients.
type TradeView struct {
	Seq     uint64 `json:"seq"`
	TakerID uint64 `json:"taker_id"`
	MakerID uint64 `json:"maker_id"`
	Symbol  string `json:"symbol"`
	Price   int64  `json:"price"`
	Qty     int64  `json:"qty"`
}

// SubmitOrderResponse reports the synchronous matching outcome.
type SubmitOrderResponse struct {
	OrderID uint64      `json:"order_id"`
	Filled  int64       `json:"filled"`
	Resting int64       `json:"resting"`
	Trades  []TradeView `json:"trades"`
}

// BookResponse is the depth snapshot of one symbol.
type BookResponse struct {
	Symbol string            `json:"symbol"`
	Bids   []book.DepthLevel `json:"bids"`
	Asks   []book.DepthLevel `json:"asks"`
}

// TradesResponse lists recent executions, newest first.
type TradesResponse struct {
	Trades []TradeView `json:"trades"`
}

type errorResponse struct {
	Error string `json:"error"`
}
