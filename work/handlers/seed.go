package handlers

import (
	"net/http"

	"lakay-tv/work/app"
)

// sampleChannel is one row of the demo lineup.
type sampleChannel struct {
	name     string
	logo     string
	stream   string
	category string
}

// sampleChannels is the demo lineup of Haitian and Caribbean live channels
// used to seed an empty catalog.
var sampleChannels = []sampleChannel{
	{"Tele Pacific", "https://static.wikia.nocookie.net/logopedia/images/e/e6/Radio_T%C3%A9l%C3%A9_Pacific_Logo.png", "https://hls-p1st0n8r.livepush.io/live_cdn/nsOk3qoty1d5HDD/emB7xoUdyMbnjH8/tracks-v1a1/mono.m3u8", "News"},
	{"Tele Ginen", "https://static.wikia.nocookie.net/logopedia/images/0/09/RTG_Logo_%28With_Full_Name%29.png", "http://teleginen.srfms.com:1935/teleginen/livestream/chunklist_w531595620.m3u8", "General"},
	{"Haiti News", "https://m.media-amazon.com/images/I/611Ffvky5yL.png", "https://haititivi.com/website/haitinews/index.m3u8", "News"},
	{"Telemix", "https://i.ibb.co/RB7dzZq/logo-mix-2.png", "https://haititivi.com/haiti/telemix1/tracks-v1a1/mono.m3u8", "Entertainment"},
	{"Kajou TV", "https://static.wixstatic.com/media/d205b7_ced5950afd8849e2b21a72f36b3a16ff~mv2.png", "https://video1.getstreamhosting.com:1936/8055/8055/chunklist_w1507178321.m3u8", "Entertainment"},
	{"RTH 2000", "https://i.imgur.com/4z0FiEA.png", "https://2-fss-2.streamhoster.com/pl_120/amlst:206708-4203440/chunklist_b3500000.m3u8", "General"},
	{"Radio Tele Puissance", "https://radiotelepuissance.com/wp-content/uploads/2020/08/cropped-radio-logo-1.png", "https://video1.getstreamhosting.com:1936/8560/8560/chunklist_w486676635.m3u8", "General"},
	{"4Diaspo TV", "https://m.media-amazon.com/images/I/71w9kTfB7xL.png", "https://59d39900ebfb8.streamlock.net/4DIASPOTV/4DIASPOTV/chunklist_w507710567.m3u8", "General"},
	{"Tele Pam", "https://encrypted-tbn0.gstatic.com/images?q=tbn:ANd9GcTabRikF9IncQwcgdXkg3Xu2TwVwrnIHbZdjA&s", "https://lakay.online/ott/telepam/tracks-v1a1/mono.m3u8", "General"},
	{"Trace Urban", "https://upload.wikimedia.org/wikipedia/commons/thumb/5/5c/Trace_Urban_logo_2010.svg/2560px-Trace_Urban_logo_2010.svg.png", "https://lightning-traceurban-samsungau.amagi.tv/playlist.m3u8", "Music"},
	{"Trace Latina", "https://upload.wikimedia.org/wikipedia/commons/thumb/0/04/TRACE_Latina_Logo.png/1280px-TRACE_Latina_Logo.png", "https://cdn-ue1-prod.tsv2.amagi.tv/linear/amg01131-tracetv-tracelatinait-samsungit/playlist.m3u8", "Music"},
	{"Bblack Caribbean", "https://i1.wp.com/vjdid.com/wp-content/uploads/2017/10/logo-bblack-caribbean-contour-noir.png", "https://edge16.vedge.infomaniak.com/livecast/ik:bblackcaribbean/chunklist_w2059905249.m3u8", "Music"},
	{"Tele Louange", "https://images.givelively.org/nonprofits/cb2020c9-71c2-4920-ad32-36f63bd7aef6/logos/christian-multi-media-network_processed_96612ebe1aaa555d1ff9fcfdde6a3ca3be40c8313_logo.png", "https://5790d294af2dc.streamlock.net/8124/8124/chunklist_w1901943944.m3u8", "Religious"},
}

// HandleInitData serves POST /api/init-data: seeds the demo lineup into an
// empty catalog. A catalog with any channels at all is left untouched.
func HandleInitData(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		existing, err := a.DB.CountChannels()
		if err != nil {
			a.Logger.Error("[API] Counting channels for seed failed: %v", err)
			writeError(w, http.StatusInternalServerError, "Error initializing data")
			return
		}
		if existing > 0 {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"message":  "Data already initialized",
				"channels": existing,
			})
			return
		}

		inserted := 0
		for _, sc := range sampleChannels {
			if _, err := a.DB.CreateChannel(sc.name, sc.logo, sc.stream, sc.category, ""); err != nil {
				a.Logger.Error("[API] Seeding channel %s failed: %v", sc.name, err)
				writeError(w, http.StatusInternalServerError, "Error initializing data")
				return
			}
			inserted++
		}

		a.Cache.InvalidateCategories()
		a.Logger.Info("[API] Seeded %d demo channels", inserted)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message":  "Sample data initialized",
			"channels": inserted,
		})
	}
}
