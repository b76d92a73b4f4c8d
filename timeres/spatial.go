package timeres

import "math"

const earthRadiusKm = 6371.0088

// haversineKm returns the great-circle distance between two coordinates.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const rad = math.Pi / 180.0
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// spatialIndex buckets the city table into 5-degree cells so nearest-city
// queries only scan a handful of candidates.
type spatialIndex struct {
	cells map[cellKey][]int
}

type cellKey struct{ latCell, lonCell int }

const cellDeg = 5.0

func keyFor(lat, lon float64) cellKey {
	return cellKey{
		latCell: int(math.Floor(lat / cellDeg)),
		lonCell: int(math.Floor(lon / cellDeg)),
	}
}

func newSpatialIndex() *spatialIndex {
	idx := &spatialIndex{cells: make(map[cellKey][]int)}
	for i, c := range cities {
		k := keyFor(c.lat, c.lon)
		idx.cells[k] = append(idx.cells[k], i)
	}
	return idx
}

// nearest returns the closest known city within radiusKm, scanning the cell
// ring around the query point. Longitude cells widen toward the poles; the
// ring is sized accordingly.
func (idx *spatialIndex) nearest(lat, lon, radiusKm float64) (*city, float64, bool) {
	latRing := int(math.Ceil(radiusKm/111.0/cellDeg)) + 1
	cosLat := math.Max(math.Cos(lat*math.Pi/180.0), 0.1)
	lonRing := int(math.Ceil(radiusKm/(111.0*cosLat)/cellDeg)) + 1

	center := keyFor(lat, lon)
	var best *city
	bestDist := math.MaxFloat64
	for dLat := -latRing; dLat <= latRing; dLat++ {
		for dLon := -lonRing; dLon <= lonRing; dLon++ {
			k := cellKey{center.latCell + dLat, center.lonCell + dLon}
			for _, i := range idx.cells[k] {
				c := &cities[i]
				d := haversineKm(lat, lon, c.lat, c.lon)
				if d < bestDist {
					best, bestDist = c, d
				}
			}
		}
	}
	if best == nil || bestDist > radiusKm {
		return nil, 0, false
	}
	return best, bestDist, true
}
