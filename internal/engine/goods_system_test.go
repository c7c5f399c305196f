package engine

import (
	"testing"

	"github.com/mbuendia/CiudadViva/server/internal/domain/building"
	"github.com/mbuendia/CiudadViva/server/internal/domain/citizen"
	"github.com/mbuendia/CiudadViva/server/internal/events"
	"github.com/mbuendia/CiudadViva/server/internal/platform/config"
	"github.com/mbuendia/CiudadViva/server/internal/platform/logger"
	"github.com/mbuendia/CiudadViva/server/internal/routing"
	"github.com/mbuendia/CiudadViva/server/internal/world"
)

func newGoodsFixture(draws ...int32) (*GoodsSystem, *world.World, *events.EventLog) {
	w := world.New()
	el := events.NewEventLog(nil)
	cfg := config.Default()
	log := logger.NewLogger()
	router := routing.NewRouter(w, cfg, el, log)
	gs := NewGoodsSystem(el, log, w, router, &queuedSource{draws: draws}, cfg)
	return gs, w, el
}

func TestGoodsDrainHourly(t *testing.T) {
	gs, w, _ := newGoodsFixture(99)
	c := citizen.New(1, "Ana", 2)
	c.Goods = 50
	w.AddCitizen(c)

	gs.OnTimeTick(tickEvent(1, 7))
	gs.OnTimeTick(tickEvent(1, 7)) // same hour, no extra drain
	gs.OnTimeTick(tickEvent(1, 8))

	if c.Goods != 48 {
		t.Errorf("two hours should drain 2 goods, got %d", c.Goods)
	}
}

func TestLowGoodsSendsShopper(t *testing.T) {
	gs, w, _ := newGoodsFixture(0)
	home := &building.Building{ID: 2, Service: building.ServiceResidential, Position: building.Position{X: 0, Z: 0}}
	far := &building.Building{ID: 3, Service: building.ServiceCommercial, Goods: 200, Position: building.Position{X: 50, Z: 0}}
	near := &building.Building{ID: 4, Service: building.ServiceCommercial, Goods: 200, Position: building.Position{X: 5, Z: 0}}
	for _, b := range []*building.Building{home, far, near} {
		b.SetFlag(building.FlagActive, true)
		w.AddBuilding(b)
	}

	c := citizen.New(1, "Ana", 2)
	c.Goods = 10
	w.AddCitizen(c)

	gs.OnTimeTick(tickEvent(1, 7))

	if !c.NeedsGoods() {
		t.Fatal("low goods with a winning draw should flag demand")
	}
	if c.Location != citizen.LocationMoving || c.MoveTarget != 4 {
		t.Errorf("shopper should head for the nearest shop: location %v target %d", c.Location, c.MoveTarget)
	}
}

func TestShopperSkipsEmptyShops(t *testing.T) {
	gs, w, _ := newGoodsFixture(0)
	home := &building.Building{ID: 2, Service: building.ServiceResidential}
	empty := &building.Building{ID: 3, Service: building.ServiceCommercial, Goods: 0}
	for _, b := range []*building.Building{home, empty} {
		b.SetFlag(building.FlagActive, true)
		w.AddBuilding(b)
	}

	c := citizen.New(1, "Ana", 2)
	c.Goods = 10
	w.AddCitizen(c)

	gs.OnTimeTick(tickEvent(1, 7))

	if !c.NeedsGoods() {
		t.Error("the demand flag is set even when no shop can serve it")
	}
	if c.Location != citizen.LocationHome {
		t.Errorf("with no stocked shop the citizen stays home, got %v", c.Location)
	}
}

func TestRestockTopsUpLowShops(t *testing.T) {
	gs, w, el := newGoodsFixture(99)
	shop := &building.Building{ID: 3, Service: building.ServiceCommercial, Goods: 40}
	full := &building.Building{ID: 4, Service: building.ServiceCommercial, Goods: 350}
	w.AddBuilding(shop)
	w.AddBuilding(full)

	gs.OnTimeTick(tickEvent(1, 7))

	if shop.Goods != 40+config.Default().RestockAmount {
		t.Errorf("low shop should restock, got %d", shop.Goods)
	}
	if full.Goods != 350 {
		t.Errorf("stocked shop must not restock, got %d", full.Goods)
	}
	if got := len(el.GetByType(events.EventTypeGoodsRestocked)); got != 1 {
		t.Errorf("expected 1 restock event, got %d", got)
	}
}

func TestDeadCitizensDoNotShop(t *testing.T) {
	gs, w, _ := newGoodsFixture(0)
	c := citizen.New(1, "Ana", 2)
	c.Goods = 10
	c.SetFlag(citizen.FlagDead, true)
	w.AddCitizen(c)

	gs.OnTimeTick(tickEvent(1, 7))

	if c.NeedsGoods() {
		t.Error("dead citizens generate no demand")
	}
	if c.Goods != 10 {
		t.Errorf("dead citizens do not consume goods, got %d", c.Goods)
	}
}
