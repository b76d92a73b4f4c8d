package timeres

// city is one entry of the embedded gazetteer backing the nearest-city zone
// lookup layer. Coverage skews toward population centers; sparse regions fall
// through to the longitude-band layer.
type city struct {
	name string
	lat  float64
	lon  float64
	zone string
}

var cities = []city{
	// North America
	{"New York", 40.7128, -74.0060, "America/New_York"},
	{"Boston", 42.3601, -71.0589, "America/New_York"},
	{"Philadelphia", 39.9526, -75.1652, "America/New_York"},
	{"Washington", 38.9072, -77.0369, "America/New_York"},
	{"Atlanta", 33.7490, -84.3880, "America/New_York"},
	{"Miami", 25.7617, -80.1918, "America/New_York"},
	{"Detroit", 42.3314, -83.0458, "America/Detroit"},
	{"Cleveland", 41.4993, -81.6944, "America/New_York"},
	{"Pittsburgh", 40.4406, -79.9959, "America/New_York"},
	{"Charlotte", 35.2271, -80.8431, "America/New_York"},
	{"Chicago", 41.8781, -87.6298, "America/Chicago"},
	{"Houston", 29.7604, -95.3698, "America/Chicago"},
	{"Dallas", 32.7767, -96.7970, "America/Chicago"},
	{"San Antonio", 29.4241, -98.4936, "America/Chicago"},
	{"Minneapolis", 44.9778, -93.2650, "America/Chicago"},
	{"St. Louis", 38.6270, -90.1994, "America/Chicago"},
	{"Kansas City", 39.0997, -94.5786, "America/Chicago"},
	{"New Orleans", 29.9511, -90.0715, "America/Chicago"},
	{"Memphis", 35.1495, -90.0490, "America/Chicago"},
	{"Nashville", 36.1627, -86.7816, "America/Chicago"},
	{"Louisville", 38.2527, -85.7585, "America/Kentucky/Louisville"},
	{"Lexington", 38.0406, -84.5037, "America/New_York"},
	{"Indianapolis", 39.7684, -86.1581, "America/Indiana/Indianapolis"},
	{"Denver", 39.7392, -104.9903, "America/Denver"},
	{"Salt Lake City", 40.7608, -111.8910, "America/Denver"},
	{"Albuquerque", 35.0844, -106.6504, "America/Denver"},
	{"El Paso", 31.7619, -106.4850, "America/Denver"},
	{"Phoenix", 33.4484, -112.0740, "America/Phoenix"},
	{"Tucson", 32.2226, -110.9747, "America/Phoenix"},
	{"Los Angeles", 34.0522, -118.2437, "America/Los_Angeles"},
	{"San Francisco", 37.7749, -122.4194, "America/Los_Angeles"},
	{"San Diego", 32.7157, -117.1611, "America/Los_Angeles"},
	{"Seattle", 47.6062, -122.3321, "America/Los_Angeles"},
	{"Portland", 45.5152, -122.6784, "America/Los_Angeles"},
	{"Las Vegas", 36.1699, -115.1398, "America/Los_Angeles"},
	{"Anchorage", 61.2181, -149.9003, "America/Anchorage"},
	{"Honolulu", 21.3069, -157.8583, "Pacific/Honolulu"},
	{"Toronto", 43.6532, -79.3832, "America/Toronto"},
	{"Montreal", 45.5017, -73.5673, "America/Toronto"},
	{"Ottawa", 45.4215, -75.6972, "America/Toronto"},
	{"Vancouver", 49.2827, -123.1207, "America/Vancouver"},
	{"Calgary", 51.0447, -114.0719, "America/Edmonton"},
	{"Winnipeg", 49.8951, -97.1384, "America/Winnipeg"},
	{"Halifax", 44.6488, -63.5752, "America/Halifax"},
	{"St. John's", 47.5615, -52.7126, "America/St_Johns"},
	{"Mexico City", 19.4326, -99.1332, "America/Mexico_City"},
	{"Guadalajara", 20.6597, -103.3496, "America/Mexico_City"},
	{"Monterrey", 25.6866, -100.3161, "America/Monterrey"},
	{"Tijuana", 32.5149, -117.0382, "America/Tijuana"},
	{"Havana", 23.1136, -82.3666, "America/Havana"},
	{"Kingston", 17.9712, -76.7936, "America/Jamaica"},
	{"San Juan", 18.4655, -66.1057, "America/Puerto_Rico"},
	{"Guatemala City", 14.6349, -90.5069, "America/Guatemala"},
	{"Panama City", 8.9824, -79.5199, "America/Panama"},

	// South America
	{"Bogota", 4.7110, -74.0721, "America/Bogota"},
	{"Caracas", 10.4806, -66.9036, "America/Caracas"},
	{"Quito", -0.1807, -78.4678, "America/Guayaquil"},
	{"Lima", -12.0464, -77.0428, "America/Lima"},
	{"La Paz", -16.4897, -68.1193, "America/La_Paz"},
	{"Santiago", -33.4489, -70.6693, "America/Santiago"},
	{"Buenos Aires", -34.6037, -58.3816, "America/Argentina/Buenos_Aires"},
	{"Montevideo", -34.9011, -56.1645, "America/Montevideo"},
	{"Asuncion", -25.2637, -57.5759, "America/Asuncion"},
	{"Sao Paulo", -23.5505, -46.6333, "America/Sao_Paulo"},
	{"Rio de Janeiro", -22.9068, -43.1729, "America/Sao_Paulo"},
	{"Brasilia", -15.8267, -47.9218, "America/Sao_Paulo"},
	{"Manaus", -3.1190, -60.0217, "America/Manaus"},

	// Europe
	{"London", 51.5074, -0.1278, "Europe/London"},
	{"Manchester", 53.4808, -2.2426, "Europe/London"},
	{"Edinburgh", 55.9533, -3.1883, "Europe/London"},
	{"Dublin", 53.3498, -6.2603, "Europe/Dublin"},
	{"Lisbon", 38.7223, -9.1393, "Europe/Lisbon"},
	{"Madrid", 40.4168, -3.7038, "Europe/Madrid"},
	{"Barcelona", 41.3874, 2.1686, "Europe/Madrid"},
	{"Paris", 48.8566, 2.3522, "Europe/Paris"},
	{"Brussels", 50.8503, 4.3517, "Europe/Brussels"},
	{"Amsterdam", 52.3676, 4.9041, "Europe/Amsterdam"},
	{"Zurich", 47.3769, 8.5417, "Europe/Zurich"},
	{"Geneva", 46.2044, 6.1432, "Europe/Zurich"},
	{"Frankfurt", 50.1109, 8.6821, "Europe/Berlin"},
	{"Berlin", 52.5200, 13.4050, "Europe/Berlin"},
	{"Munich", 48.1351, 11.5820, "Europe/Berlin"},
	{"Vienna", 48.2082, 16.3738, "Europe/Vienna"},
	{"Prague", 50.0755, 14.4378, "Europe/Prague"},
	{"Milan", 45.4642, 9.1900, "Europe/Rome"},
	{"Rome", 41.9028, 12.4964, "Europe/Rome"},
	{"Naples", 40.8518, 14.2681, "Europe/Rome"},
	{"Copenhagen", 55.6761, 12.5683, "Europe/Copenhagen"},
	{"Oslo", 59.9139, 10.7522, "Europe/Oslo"},
	{"Stockholm", 59.3293, 18.0686, "Europe/Stockholm"},
	{"Helsinki", 60.1699, 24.9384, "Europe/Helsinki"},
	{"Warsaw", 52.2297, 21.0122, "Europe/Warsaw"},
	{"Budapest", 47.4979, 19.0402, "Europe/Budapest"},
	{"Belgrade", 44.7866, 20.4489, "Europe/Belgrade"},
	{"Bucharest", 44.4268, 26.1025, "Europe/Bucharest"},
	{"Sofia", 42.6977, 23.3219, "Europe/Sofia"},
	{"Athens", 37.9838, 23.7275, "Europe/Athens"},
	{"Istanbul", 41.0082, 28.9784, "Europe/Istanbul"},
	{"Kyiv", 50.4501, 30.5234, "Europe/Kyiv"},
	{"Minsk", 53.9006, 27.5590, "Europe/Minsk"},
	{"Riga", 56.9496, 24.1052, "Europe/Riga"},
	{"Vilnius", 54.6872, 25.2797, "Europe/Vilnius"},
	{"Tallinn", 59.4370, 24.7536, "Europe/Tallinn"},
	{"Moscow", 55.7558, 37.6173, "Europe/Moscow"},
	{"St. Petersburg", 59.9311, 30.3609, "Europe/Moscow"},

	// Africa
	{"Casablanca", 33.5731, -7.5898, "Africa/Casablanca"},
	{"Algiers", 36.7538, 3.0588, "Africa/Algiers"},
	{"Tunis", 36.8065, 10.1815, "Africa/Tunis"},
	{"Cairo", 30.0444, 31.2357, "Africa/Cairo"},
	{"Lagos", 6.5244, 3.3792, "Africa/Lagos"},
	{"Accra", 5.6037, -0.1870, "Africa/Accra"},
	{"Dakar", 14.7167, -17.4677, "Africa/Dakar"},
	{"Addis Ababa", 9.0300, 38.7400, "Africa/Addis_Ababa"},
	{"Nairobi", -1.2921, 36.8219, "Africa/Nairobi"},
	{"Kinshasa", -4.4419, 15.2663, "Africa/Kinshasa"},
	{"Luanda", -8.8390, 13.2894, "Africa/Luanda"},
	{"Johannesburg", -26.2041, 28.0473, "Africa/Johannesburg"},
	{"Cape Town", -33.9249, 18.4241, "Africa/Johannesburg"},

	// Asia
	{"Tel Aviv", 32.0853, 34.7818, "Asia/Jerusalem"},
	{"Jerusalem", 31.7683, 35.2137, "Asia/Jerusalem"},
	{"Beirut", 33.8938, 35.5018, "Asia/Beirut"},
	{"Damascus", 33.5138, 36.2765, "Asia/Damascus"},
	{"Amman", 31.9454, 35.9284, "Asia/Amman"},
	{"Baghdad", 33.3152, 44.3661, "Asia/Baghdad"},
	{"Riyadh", 24.7136, 46.6753, "Asia/Riyadh"},
	{"Dubai", 25.2048, 55.2708, "Asia/Dubai"},
	{"Tehran", 35.6892, 51.3890, "Asia/Tehran"},
	{"Kabul", 34.5553, 69.2075, "Asia/Kabul"},
	{"Karachi", 24.8607, 67.0011, "Asia/Karachi"},
	{"Lahore", 31.5204, 74.3587, "Asia/Karachi"},
	{"Delhi", 28.7041, 77.1025, "Asia/Kolkata"},
	{"Mumbai", 19.0760, 72.8777, "Asia/Kolkata"},
	{"Kolkata", 22.5726, 88.3639, "Asia/Kolkata"},
	{"Chennai", 13.0827, 80.2707, "Asia/Kolkata"},
	{"Bengaluru", 12.9716, 77.5946, "Asia/Kolkata"},
	{"Colombo", 6.9271, 79.8612, "Asia/Colombo"},
	{"Kathmandu", 27.7172, 85.3240, "Asia/Kathmandu"},
	{"Dhaka", 23.8103, 90.4125, "Asia/Dhaka"},
	{"Yangon", 16.8409, 96.1735, "Asia/Yangon"},
	{"Bangkok", 13.7563, 100.5018, "Asia/Bangkok"},
	{"Hanoi", 21.0278, 105.8342, "Asia/Ho_Chi_Minh"},
	{"Ho Chi Minh City", 10.8231, 106.6297, "Asia/Ho_Chi_Minh"},
	{"Phnom Penh", 11.5564, 104.9282, "Asia/Phnom_Penh"},
	{"Kuala Lumpur", 3.1390, 101.6869, "Asia/Kuala_Lumpur"},
	{"Singapore", 1.3521, 103.8198, "Asia/Singapore"},
	{"Jakarta", -6.2088, 106.8456, "Asia/Jakarta"},
	{"Manila", 14.5995, 120.9842, "Asia/Manila"},
	{"Hong Kong", 22.3193, 114.1694, "Asia/Hong_Kong"},
	{"Taipei", 25.0330, 121.5654, "Asia/Taipei"},
	{"Guangzhou", 23.1291, 113.2644, "Asia/Shanghai"},
	{"Shanghai", 31.2304, 121.4737, "Asia/Shanghai"},
	{"Beijing", 39.9042, 116.4074, "Asia/Shanghai"},
	{"Chengdu", 30.5728, 104.0668, "Asia/Shanghai"},
	{"Seoul", 37.5665, 126.9780, "Asia/Seoul"},
	{"Pyongyang", 39.0392, 125.7625, "Asia/Pyongyang"},
	{"Tokyo", 35.6762, 139.6503, "Asia/Tokyo"},
	{"Osaka", 34.6937, 135.5023, "Asia/Tokyo"},
	{"Ulaanbaatar", 47.8864, 106.9057, "Asia/Ulaanbaatar"},
	{"Almaty", 43.2220, 76.8512, "Asia/Almaty"},
	{"Tashkent", 41.2995, 69.2401, "Asia/Tashkent"},
	{"Baku", 40.4093, 49.8671, "Asia/Baku"},
	{"Tbilisi", 41.7151, 44.8271, "Asia/Tbilisi"},
	{"Yerevan", 40.1792, 44.4991, "Asia/Yerevan"},
	{"Novosibirsk", 55.0084, 82.9357, "Asia/Novosibirsk"},
	{"Vladivostok", 43.1332, 131.9113, "Asia/Vladivostok"},

	// Oceania
	{"Perth", -31.9505, 115.8605, "Australia/Perth"},
	{"Adelaide", -34.9285, 138.6007, "Australia/Adelaide"},
	{"Darwin", -12.4634, 130.8456, "Australia/Darwin"},
	{"Brisbane", -27.4698, 153.0251, "Australia/Brisbane"},
	{"Sydney", -33.8688, 151.2093, "Australia/Sydney"},
	{"Melbourne", -37.8136, 144.9631, "Australia/Melbourne"},
	{"Hobart", -42.8821, 147.3272, "Australia/Hobart"},
	{"Auckland", -36.8509, 174.7645, "Pacific/Auckland"},
	{"Wellington", -41.2866, 174.7756, "Pacific/Auckland"},
	{"Suva", -18.1248, 178.4501, "Pacific/Fiji"},
	{"Papeete", -17.5516, -149.5585, "Pacific/Tahiti"},
}
