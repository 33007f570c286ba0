package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/sitesell/sitesell/internal/access"
	"github.com/sitesell/sitesell/internal/balance"
	"github.com/sitesell/sitesell/internal/catalog"
	"github.com/sitesell/sitesell/internal/config"
	"github.com/sitesell/sitesell/internal/invoice"
	"github.com/sitesell/sitesell/internal/migration"
	"github.com/sitesell/sitesell/internal/notification"
	"github.com/sitesell/sitesell/internal/order"
	"github.com/sitesell/sitesell/internal/payment"
	"github.com/sitesell/sitesell/internal/payout"
	"github.com/sitesell/sitesell/internal/refund"
	"github.com/sitesell/sitesell/internal/server"
	"github.com/sitesell/sitesell/pkg/db"
	"github.com/sitesell/sitesell/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		catalog.Module,
		order.Module,
		access.Module,
		invoice.Module,
		balance.Module,
		payout.Module,
		refund.Module,
		payment.Module,
		notification.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
