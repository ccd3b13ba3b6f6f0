package adsb

import "math"

// cprModInt performs an always-positive modulo (dump1090 style).
func cprModInt(a, b int) int {
	res := a % b
	if res < 0 {
		res += b
	}
	return res
}

// CPRNLTable returns the number of longitude zones for a given latitude,
// using the standard NL lookup table (CPR_NL function).
func CPRNLTable(lat float64) int {
	absLat := math.Abs(lat)

	switch {
	case absLat < 10.47047130:
		return 59
	case absLat < 14.82817437:
		return 58
	case absLat < 18.18626357:
		return 57
	case absLat < 21.02939493:
		return 56
	case absLat < 23.54504487:
		return 55
	case absLat < 25.82924707:
		return 54
	case absLat < 27.93898710:
		return 53
	case absLat < 29.91135686:
		return 52
	case absLat < 31.77209708:
		return 51
	case absLat < 33.53993436:
		return 50
	case absLat < 35.22899598:
		return 49
	case absLat < 36.85025108:
		return 48
	case absLat < 38.41241892:
		return 47
	case absLat < 39.92256684:
		return 46
	case absLat < 41.38651832:
		return 45
	case absLat < 42.80914012:
		return 44
	case absLat < 44.19454951:
		return 43
	case absLat < 45.54626723:
		return 42
	case absLat < 46.86733252:
		return 41
	case absLat < 48.16039128:
		return 40
	case absLat < 49.42776439:
		return 39
	case absLat < 50.67150166:
		return 38
	case absLat < 51.89342469:
		return 37
	case absLat < 53.09516153:
		return 36
	case absLat < 54.27817472:
		return 35
	case absLat < 55.44378444:
		return 34
	case absLat < 56.59318756:
		return 33
	case absLat < 57.72747354:
		return 32
	case absLat < 58.84763776:
		return 31
	case absLat < 59.95459277:
		return 30
	case absLat < 61.04917774:
		return 29
	case absLat < 62.13216659:
		return 28
	case absLat < 63.20427479:
		return 27
	case absLat < 64.26616523:
		return 26
	case absLat < 65.31845310:
		return 25
	case absLat < 66.36171008:
		return 24
	case absLat < 67.39646774:
		return 23
	case absLat < 68.42322022:
		return 22
	case absLat < 69.44242631:
		return 21
	case absLat < 70.45451075:
		return 20
	case absLat < 71.45986473:
		return 19
	case absLat < 72.45884545:
		return 18
	case absLat < 73.45177442:
		return 17
	case absLat < 74.43893416:
		return 16
	case absLat < 75.42056257:
		return 15
	case absLat < 76.39684391:
		return 14
	case absLat < 77.36789461:
		return 13
	case absLat < 78.33374083:
		return 12
	case absLat < 79.29428225:
		return 11
	case absLat < 80.24923213:
		return 10
	case absLat < 81.19801349:
		return 9
	case absLat < 82.13956981:
		return 8
	case absLat < 83.07199445:
		return 7
	case absLat < 83.99173563:
		return 6
	case absLat < 84.89166191:
		return 5
	case absLat < 85.75541621:
		return 4
	case absLat < 86.53536998:
		return 3
	case absLat < 87.00000000:
		return 2
	default:
		return 1
	}
}

// CPRNFunction returns the number of longitude zones, adjusted for the
// odd/even frame flag.
func CPRNFunction(lat float64, oddFlag int) int {
	nl := CPRNLTable(lat) - oddFlag
	if nl < 1 {
		nl = 1
	}
	return nl
}

// CPRDlonFunction returns the longitude zone width in degrees.
func CPRDlonFunction(lat float64, oddFlag int) float64 {
	return 360.0 / float64(CPRNFunction(lat, oddFlag))
}

// DecodeGlobalAirborne implements the globally-unambiguous airborne CPR
// decode (spec.md §4.5): given a paired even and odd frame, returns the
// decoded lat/lon. ok is false if the pair straddles a latitude zone or
// produces an out-of-range latitude, the "CPR out-of-range pair: silently
// skipped" disposition from spec.md §7.
func DecodeGlobalAirborne(even, odd CPRFrame) (lat, lon float64, ok bool) {
	const cprMax = 131072.0 // 2^17

	airDlat0 := 360.0 / 60.0
	airDlat1 := 360.0 / 59.0

	lat0 := float64(even.LatCPR)
	lat1 := float64(odd.LatCPR)
	lon0 := float64(even.LonCPR)
	lon1 := float64(odd.LonCPR)

	j := int(math.Floor(((59*lat0 - 60*lat1) / cprMax) + 0.5))

	rlat0 := airDlat0 * (float64(cprModInt(j, 60)) + lat0/cprMax)
	rlat1 := airDlat1 * (float64(cprModInt(j, 59)) + lat1/cprMax)

	if rlat0 >= 270 {
		rlat0 -= 360
	}
	if rlat1 >= 270 {
		rlat1 -= 360
	}

	if rlat0 < -90 || rlat0 > 90 || rlat1 < -90 || rlat1 > 90 {
		return 0, 0, false
	}

	if CPRNLTable(rlat0) != CPRNLTable(rlat1) {
		return 0, 0, false // positions crossed a latitude zone
	}

	var rlat, rlon float64
	if odd.Timestamp.After(even.Timestamp) {
		ni := CPRNFunction(rlat1, 1)
		m := int(math.Floor((((lon0 * float64(CPRNLTable(rlat1)-1)) -
			(lon1 * float64(CPRNLTable(rlat1)))) / cprMax) + 0.5))
		rlon = CPRDlonFunction(rlat1, 1) * (float64(cprModInt(m, ni)) + lon1/cprMax)
		rlat = rlat1
	} else {
		ni := CPRNFunction(rlat0, 0)
		m := int(math.Floor((((lon0 * float64(CPRNLTable(rlat0)-1)) -
			(lon1 * float64(CPRNLTable(rlat0)))) / cprMax) + 0.5))
		rlon = CPRDlonFunction(rlat0, 0) * (float64(cprModInt(m, ni)) + lon0/cprMax)
		rlat = rlat0
	}

	rlon -= math.Floor((rlon+180)/360) * 360

	return rlat, rlon, true
}

// DecodeLocalAirborne resolves a single CPR frame against a known
// reference position, for use when no opposite-parity frame has arrived
// within the pairing window. This is the estimate fallback path noted in
// spec.md §4.5, not the primary decode route.
func DecodeLocalAirborne(frame CPRFrame, oddFlag int, refLat, refLon float64) (lat, lon float64, ok bool) {
	const cprMax = 131072.0

	airDlat := 360.0 / 60.0
	if oddFlag == 1 {
		airDlat = 360.0 / 59.0
	}

	j := int(math.Floor(refLat/airDlat + 0.5))
	rlat := airDlat * (float64(j) + float64(frame.LatCPR)/cprMax)

	if (rlat - refLat) > (airDlat / 2.0) {
		rlat -= airDlat
	} else if (rlat - refLat) < -(airDlat / 2.0) {
		rlat += airDlat
	}

	if rlat < -90 || rlat > 90 {
		return 0, 0, false
	}

	ni := CPRNFunction(rlat, oddFlag)
	dlon := 360.0 / float64(ni)
	m := int(math.Floor(refLon/dlon + 0.5))
	rlon := dlon * (float64(m) + float64(frame.LonCPR)/cprMax)

	if (rlon - refLon) > (dlon / 2.0) {
		rlon -= dlon
	} else if (rlon - refLon) < -(dlon / 2.0) {
		rlon += dlon
	}

	rlon -= math.Floor((rlon+180)/360) * 360

	return rlat, rlon, true
}
