package main

import (
	"fmt"

	"github.com/PinkMushroom/vedo"
	"github.com/go-gl/mathgl/mgl64"
)

func main() {
	// A small ring of points in the xy-plane, centered on (3, 0, 0).
	points := []mgl64.Vec3{
		{4, 0, 0},
		{3, 1, 0},
		{2, 0, 0},
		{3, -1, 0},
	}
	cloud := vedo.NewPointCloud(points)

	fmt.Println("Before:")
	for i := 0; i < cloud.NumPoints(); i++ {
		fmt.Printf("   point %d: %v\n", i, cloud.Point(i))
	}

	// Rotate 90 degrees around the y-axis through the ring center, then
	// double the size around the same pivot.
	pivot := mgl64.Vec3{3, 0, 0}
	t := vedo.New()
	if err := t.Rotate(90, mgl64.Vec3{0, 1, 0}, pivot, false); err != nil {
		fmt.Println("rotate failed:", err)
		return
	}
	t.ScaleAround(mgl64.Vec3{2, 2, 2}, pivot)

	fmt.Println(t)

	t.ApplyTo(cloud)

	fmt.Println("After:")
	for i := 0; i < cloud.NumPoints(); i++ {
		fmt.Printf("   point %d: %v\n", i, cloud.Point(i))
	}

	// The locator is rebuilt from the transformed coordinates.
	closest := cloud.Locator().Closest(mgl64.Vec3{3, 2, 0})
	fmt.Printf("closest to (3,2,0): point %d at %v\n", closest, cloud.Point(closest))

	// Round-trip through the inverse restores the original ring.
	t.Invert()
	t.ApplyTo(cloud)
	fmt.Println("Restored:")
	for i := 0; i < cloud.NumPoints(); i++ {
		fmt.Printf("   point %d: %v\n", i, cloud.Point(i))
	}
}
