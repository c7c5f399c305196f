package engine

import (
	"fmt"

	"github.com/mbuendia/CiudadViva/server/internal/domain/building"
	"github.com/mbuendia/CiudadViva/server/internal/domain/citizen"
	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/config"
	"github.com/mbuendia/CiudadViva/server/internal/platform/logger"
	"github.com/mbuendia/CiudadViva/server/internal/platform/random"
	"github.com/mbuendia/CiudadViva/server/internal/routing"
	"github.com/mbuendia/CiudadViva/server/internal/world"
)

// Household goods drain one unit per in-game hour; below this level the
// citizen starts looking for a shop.
const (
	goodsDrainPerHour = 1
	lowGoodsLevel     = 20
	restockBelow      = 100
)

// GoodsSystem drives the shopping demand cycle: households consume goods,
// flag demand, and head out to commercial buildings; shops restock.
type GoodsSystem struct {
	eventLog *events.EventLog
	logger   *logger.Logger
	world    *world.World
	router   *routing.Router
	rng      random.Source
	cfg      *config.Config

	lastHour int
	day      int
}

// NewGoodsSystem creates the goods cycle manager.
func NewGoodsSystem(eventLog *events.EventLog, log *logger.Logger, w *world.World, router *routing.Router, rng random.Source, cfg *config.Config) *GoodsSystem {
	return &GoodsSystem{
		eventLog: eventLog,
		logger:   log,
		world:    w,
		router:   router,
		rng:      rng,
		cfg:      cfg,
		lastHour: -1,
	}
}

// OnTimeTick runs the hourly goods drain, shopping dispatch and restock.
func (gs *GoodsSystem) OnTimeTick(event events.CityEvent) {
	payload, ok := event.Payload.(TimeTickPayload)
	if !ok {
		return
	}
	gs.day = payload.GameDay
	if payload.GameHour == gs.lastHour {
		return
	}
	gs.lastHour = payload.GameHour

	gs.world.ForEachCitizen(func(c *citizen.Citizen) {
		if c.Dead() {
			return
		}

		c.Goods -= goodsDrainPerHour
		if c.Goods < 0 {
			c.Goods = 0
		}

		if c.Goods >= lowGoodsLevel || c.NeedsGoods() {
			return
		}
		if !random.ShouldOccur(gs.rng, gs.cfg.NeedGoodsPercent) {
			return
		}

		c.SetFlag(citizen.FlagNeedGoods, true)
		gs.sendShopping(c)
	})

	gs.restock()
}

// sendShopping routes an at-home citizen to the nearest open shop. A
// citizen out and about keeps the flag and buys at its current visit.
func (gs *GoodsSystem) sendShopping(c *citizen.Citizen) {
	if c.Location != citizen.LocationHome || c.MidTransit() {
		return
	}

	var shop *building.Building
	var bestDist float64
	home := gs.world.Building(c.HomeBuilding)
	gs.world.ForEachBuilding(func(b *building.Building) {
		if b.Service != building.ServiceCommercial || !b.Active() || b.Goods <= 0 {
			return
		}
		if home == nil {
			if shop == nil {
				shop = b
			}
			return
		}
		d := home.Position.DistSq(b.Position)
		if shop == nil || d < bestDist {
			shop = b
			bestDist = d
		}
	})
	if shop == nil {
		return
	}

	c.SetVisitplace(shop.ID)
	gs.router.StartMoving(c, c.HomeBuilding, shop.ID)
}

// restock tops up commercial goods buffers that have run low.
func (gs *GoodsSystem) restock() {
	gs.world.ForEachBuilding(func(b *building.Building) {
		if b.Service != building.ServiceCommercial || b.Goods >= restockBelow {
			return
		}
		b.Goods += gs.cfg.RestockAmount
		gs.eventLog.Append(events.CityEvent{
			ID:       events.NewID(),
			Type:     events.EventTypeGoodsRestocked,
			ActorID:  "goods-system",
			TargetID: fmt.Sprintf("building-%d", b.ID),
			Payload:  map[string]interface{}{"goods": b.Goods},
			GameDay:  gs.day,
		})
	})
}
