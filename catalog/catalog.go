package catalog

import (
	"sort"
	"strings"

	"astronomy-explorer/models"
)

// Constellation запись каталога созвездий.
type Constellation struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// constellations 88 созвездий МАС, ключ в нижнем регистре как его ждет API.
var constellations = map[string]string{
	"and": "Andromeda", "ant": "Antlia", "aps": "Apus", "aqr": "Aquarius",
	"aql": "Aquila", "ara": "Ara", "ari": "Aries", "aur": "Auriga",
	"boo": "Boötes", "cae": "Caelum", "cam": "Camelopardalis", "cnc": "Cancer",
	"cvn": "Canes Venatici", "cma": "Canis Major", "cmi": "Canis Minor", "cap": "Capricornus",
	"car": "Carina", "cas": "Cassiopeia", "cen": "Centaurus", "cep": "Cepheus",
	"cet": "Cetus", "cha": "Chamaeleon", "cir": "Circinus", "col": "Columba",
	"com": "Coma Berenices", "cra": "Corona Australis", "crb": "Corona Borealis", "crv": "Corvus",
	"crt": "Crater", "cru": "Crux", "cyg": "Cygnus", "del": "Delphinus",
	"dor": "Dorado", "dra": "Draco", "equ": "Equuleus", "eri": "Eridanus",
	"for": "Fornax", "gem": "Gemini", "gru": "Grus", "her": "Hercules",
	"hor": "Horologium", "hya": "Hydra", "hyi": "Hydrus", "ind": "Indus",
	"lac": "Lacerta", "leo": "Leo", "lmi": "Leo Minor", "lep": "Lepus",
	"lib": "Libra", "lup": "Lupus", "lyn": "Lynx", "lyr": "Lyra",
	"men": "Mensa", "mic": "Microscopium", "mon": "Monoceros", "mus": "Musca",
	"nor": "Norma", "oct": "Octans", "oph": "Ophiuchus", "ori": "Orion",
	"pav": "Pavo", "peg": "Pegasus", "per": "Perseus", "phe": "Phoenix",
	"pic": "Pictor", "psc": "Pisces", "psa": "Piscis Austrinus", "pup": "Puppis",
	"pyx": "Pyxis", "ret": "Reticulum", "sge": "Sagitta", "sgr": "Sagittarius",
	"sco": "Scorpius", "scl": "Sculptor", "sct": "Scutum", "ser": "Serpens",
	"sex": "Sextans", "tau": "Taurus", "tel": "Telescopium", "tri": "Triangulum",
	"tra": "Triangulum Australe", "tuc": "Tucana", "uma": "Ursa Major", "umi": "Ursa Minor",
	"vel": "Vela", "vir": "Virgo", "vol": "Volans", "vul": "Vulpecula",
}

// StarChartStyles стили, которые принимает эндпоинт карты созвездий.
var StarChartStyles = []string{"default", "inverted", "navy", "red"}

// MoonViews варианты компоновки изображения фазы Луны.
var MoonViews = []string{"portrait-simple", "landscape-simple"}

var moonStyles = map[string]models.MoonStyle{
	"default": {
		MoonStyle:       "default",
		BackgroundStyle: "stars",
		BackgroundColor: "#000000",
		HeadingColor:    "#ffffff",
		TextColor:       "#ffffff",
	},
	"sketch": {
		MoonStyle:       "sketch",
		BackgroundStyle: "solid",
		BackgroundColor: "#f5f0e1",
		HeadingColor:    "#2b2b2b",
		TextColor:       "#2b2b2b",
	},
	"shaded": {
		MoonStyle:       "shaded",
		BackgroundStyle: "stars",
		BackgroundColor: "#0b1026",
		HeadingColor:    "#e8e8ff",
		TextColor:       "#c8c8e8",
	},
}

// Constellations возвращает каталог, отсортированный по коду.
func Constellations() []Constellation {
	out := make([]Constellation, 0, len(constellations))
	for code, name := range constellations {
		out = append(out, Constellation{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// LookupConstellation ищет созвездие по коду без учета регистра.
func LookupConstellation(code string) (Constellation, bool) {
	key := strings.ToLower(strings.TrimSpace(code))
	name, ok := constellations[key]
	if !ok {
		return Constellation{}, false
	}
	return Constellation{Code: key, Name: name}, true
}

// MoonStyle раскрывает имя пресета в полный набор цветов.
func MoonStyle(name string) (models.MoonStyle, bool) {
	style, ok := moonStyles[strings.ToLower(strings.TrimSpace(name))]
	return style, ok
}

// MoonStyleNames имена пресетов фазы Луны по алфавиту.
func MoonStyleNames() []string {
	names := make([]string, 0, len(moonStyles))
	for name := range moonStyles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
