package handler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Devlipesilva17/studio-sub000/internal/poolcalc"
	"github.com/Devlipesilva17/studio-sub000/internal/repository"
)

func f(v float64) *float64 { return &v }

func TestPoolRequestAutoVolume(t *testing.T) {
	req := poolReq{
		ClientID:   1,
		Label:      "Backyard",
		Shape:      string(poolcalc.ShapeQuadrilateral),
		LengthM:    f(10),
		WidthM:     f(5),
		AvgDepthM:  f(1.5),
		VolumeMode: poolcalc.ModeAuto,
	}
	require.Empty(t, req.validate())

	p := req.toPool(0)
	require.NotNil(t, p.VolumeLiters)
	require.Equal(t, 75000, *p.VolumeLiters)
}

func TestPoolRequestAutoVolumeIgnoresSubmittedValue(t *testing.T) {
	stale := 123
	req := poolReq{
		ClientID:     1,
		Label:        "Backyard",
		Shape:        string(poolcalc.ShapeCircular),
		LengthM:      f(4), // diameter
		AvgDepthM:    f(1.2),
		VolumeLiters: &stale,
		VolumeMode:   poolcalc.ModeAuto,
	}
	p := req.toPool(0)
	require.NotNil(t, p.VolumeLiters)
	require.Equal(t, 15070, *p.VolumeLiters)
}

func TestPoolRequestAutoVolumeUnderspecified(t *testing.T) {
	req := poolReq{
		ClientID:   1,
		Label:      "Backyard",
		Shape:      string(poolcalc.ShapeOval),
		LengthM:    f(8),
		VolumeMode: poolcalc.ModeAuto, // width and depth missing
	}
	p := req.toPool(0)
	require.Nil(t, p.VolumeLiters)
}

func TestPoolRequestManualVolumeKept(t *testing.T) {
	manual := 42000
	req := poolReq{
		ClientID:     1,
		Label:        "Backyard",
		Shape:        string(poolcalc.ShapeQuadrilateral),
		VolumeLiters: &manual,
		VolumeMode:   poolcalc.ModeManual,
	}
	require.Empty(t, req.validate())
	p := req.toPool(7)
	require.Equal(t, uint64(7), p.ID)
	require.NotNil(t, p.VolumeLiters)
	require.Equal(t, 42000, *p.VolumeLiters)
}

func TestPoolRequestValidate(t *testing.T) {
	req := poolReq{Shape: "triangular", VolumeMode: "guess"}
	errs := req.validate()
	require.Contains(t, errs, "client_id")
	require.Contains(t, errs, "label")
	require.Contains(t, errs, "shape")
	require.Contains(t, errs, "volume_mode")
}

func TestPoolRequestDefaultsVolumeMode(t *testing.T) {
	req := poolReq{ClientID: 1, Label: "x", Shape: string(poolcalc.ShapeQuadrilateral)}
	require.Empty(t, req.validate())
	require.Equal(t, poolcalc.ModeAuto, req.VolumeMode)
}

func TestChemistryStatus(t *testing.T) {
	p := &repository.Pool{
		PH:           f(7.4),
		FreeChlorine: f(4.5),
		Alkalinity:   f(70),
	}
	status := chemistryStatus(p)
	require.Equal(t, poolcalc.BandGood, status[poolcalc.ParamPH])
	require.Equal(t, poolcalc.BandDanger, status[poolcalc.ParamFreeChlorine])
	require.Equal(t, poolcalc.BandWarning, status[poolcalc.ParamAlkalinity])
	require.Equal(t, poolcalc.BandNone, status[poolcalc.ParamCalciumHardness])
}
