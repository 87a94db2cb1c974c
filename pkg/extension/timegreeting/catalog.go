package timegreeting

import "github.com/igorsilveira/helloext/pkg/greeting"

type Period string

const (
	PeriodDawn      Period = "dawn"
	PeriodMorning   Period = "morning"
	PeriodNoon      Period = "noon"
	PeriodAfternoon Period = "afternoon"
	PeriodEvening   Period = "evening"
	PeriodNight     Period = "night"
	PeriodLateNight Period = "late_night"
)

var periods = []Period{PeriodDawn, PeriodMorning, PeriodNoon, PeriodAfternoon, PeriodEvening, PeriodNight, PeriodLateNight}

// ClassifyHour maps an hour of the day to its period. Hours outside 0-23
// land in late_night.
func ClassifyHour(hour int) Period {
	switch {
	case hour >= 5 && hour < 7:
		return PeriodDawn
	case hour >= 7 && hour < 12:
		return PeriodMorning
	case hour == 12:
		return PeriodNoon
	case hour >= 13 && hour < 18:
		return PeriodAfternoon
	case hour >= 18 && hour < 21:
		return PeriodEvening
	case hour >= 21 && hour < 23:
		return PeriodNight
	default:
		return PeriodLateNight
	}
}

func PeriodNames() []string {
	out := make([]string, len(periods))
	for i, p := range periods {
		out[i] = string(p)
	}
	return out
}

type Style string

const (
	StyleCasual Style = "casual"
	StyleFormal Style = "formal"
	StyleBrief  Style = "brief"
)

var styles = []Style{StyleCasual, StyleFormal, StyleBrief}

func StyleNames() []string {
	out := make([]string, len(styles))
	for i, s := range styles {
		out[i] = string(s)
	}
	return out
}

func validStyle(s Style) bool {
	for _, v := range styles {
		if v == s {
			return true
		}
	}
	return false
}

// Greeting returns the text for a period, language and style. A missing
// combination falls back to the period's casual English greeting.
func Greeting(p Period, lang greeting.Language, style Style) string {
	if text, ok := greetings[p][lang][style]; ok {
		return text
	}
	if text, ok := greetings[p][greeting.LanguageEnglish][StyleCasual]; ok {
		return text
	}
	return "Hello!"
}

var greetings = map[Period]map[greeting.Language]map[Style]string{
	PeriodDawn: {
		greeting.LanguageEnglish: {
			StyleCasual: "Good early morning! The sun is just rising. ☀️",
			StyleFormal: "Good morning. The day is beginning early.",
			StyleBrief:  "Early morning! ☀️",
		},
		greeting.LanguageSpanish: {
			StyleCasual: "¡Buenos días temprano! El sol está saliendo. ☀️",
			StyleFormal: "Buenos días. El día está comenzando temprano.",
			StyleBrief:  "¡Madrugada! ☀️",
		},
		greeting.LanguageFrench: {
			StyleCasual: "Bon petit matin! Le soleil se lève. ☀️",
			StyleFormal: "Bonjour. La journée commence tôt.",
			StyleBrief:  "Petit matin! ☀️",
		},
		greeting.LanguageGerman: {
			StyleCasual: "Guten frühen Morgen! Die Sonne geht auf. ☀️",
			StyleFormal: "Guten Morgen. Der Tag beginnt früh.",
			StyleBrief:  "Früher Morgen! ☀️",
		},
		greeting.LanguageJapanese: {
			StyleCasual: "おはようございます！太陽が昇っています。☀️",
			StyleFormal: "おはようございます。一日が早く始まります。",
			StyleBrief:  "早朝！☀️",
		},
	},
	PeriodMorning: {
		greeting.LanguageEnglish: {
			StyleCasual: "Good morning! Hope you're having a great start to your day! ☀️",
			StyleFormal: "Good morning. I trust you are having a productive morning.",
			StyleBrief:  "Good morning! ☀️",
		},
		greeting.LanguageSpanish: {
			StyleCasual: "¡Buenos días! ¡Espero que tengas un gran comienzo de día! ☀️",
			StyleFormal: "Buenos días. Espero que tenga una mañana productiva.",
			StyleBrief:  "¡Buenos días! ☀️",
		},
		greeting.LanguageFrench: {
			StyleCasual: "Bonjour! J'espère que vous passez un bon début de journée! ☀️",
			StyleFormal: "Bonjour. J'espère que vous passez une matinée productive.",
			StyleBrief:  "Bonjour! ☀️",
		},
		greeting.LanguageGerman: {
			StyleCasual: "Guten Morgen! Ich hoffe, Sie haben einen guten Start in den Tag! ☀️",
			StyleFormal: "Guten Morgen. Ich hoffe, Sie haben einen produktiven Morgen.",
			StyleBrief:  "Guten Morgen! ☀️",
		},
		greeting.LanguageJapanese: {
			StyleCasual: "おはようございます！素晴らしい一日の始まりを！☀️",
			StyleFormal: "おはようございます。生産的な朝をお過ごしください。",
			StyleBrief:  "おはよう！☀️",
		},
	},
	PeriodNoon: {
		greeting.LanguageEnglish: {
			StyleCasual: "Good afternoon! Perfect time for lunch! 🌞",
			StyleFormal: "Good afternoon. I hope your midday is going well.",
			StyleBrief:  "Good afternoon! 🌞",
		},
		greeting.LanguageSpanish: {
			StyleCasual: "¡Buenas tardes! ¡Momento perfecto para almorzar! 🌞",
			StyleFormal: "Buenas tardes. Espero que su mediodía vaya bien.",
			StyleBrief:  "¡Buenas tardes! 🌞",
		},
		greeting.LanguageFrench: {
			StyleCasual: "Bon après-midi! Parfait pour le déjeuner! 🌞",
			StyleFormal: "Bon après-midi. J'espère que votre midi se passe bien.",
			StyleBrief:  "Bon après-midi! 🌞",
		},
		greeting.LanguageGerman: {
			StyleCasual: "Guten Tag! Perfekte Zeit fürs Mittagessen! 🌞",
			StyleFormal: "Guten Tag. Ich hoffe, Ihr Mittag verläuft gut.",
			StyleBrief:  "Guten Tag! 🌞",
		},
		greeting.LanguageJapanese: {
			StyleCasual: "こんにちは！昼食に最適な時間ですね！🌞",
			StyleFormal: "こんにちは。お昼がうまくいっていることを願います。",
			StyleBrief:  "こんにちは！🌞",
		},
	},
	PeriodAfternoon: {
		greeting.LanguageEnglish: {
			StyleCasual: "Good afternoon! Hope your day is going well! 🌤️",
			StyleFormal: "Good afternoon. I trust you are having a productive day.",
			StyleBrief:  "Good afternoon! 🌤️",
		},
		greeting.LanguageSpanish: {
			StyleCasual: "¡Buenas tardes! ¡Espero que tu día vaya bien! 🌤️",
			StyleFormal: "Buenas tardes. Espero que tenga un día productivo.",
			StyleBrief:  "¡Buenas tardes! 🌤️",
		},
		greeting.LanguageFrench: {
			StyleCasual: "Bon après-midi! J'espère que votre journée se passe bien! 🌤️",
			StyleFormal: "Bon après-midi. J'espère que vous passez une journée productive.",
			StyleBrief:  "Bon après-midi! 🌤️",
		},
		greeting.LanguageGerman: {
			StyleCasual: "Guten Tag! Ich hoffe, Ihr Tag verläuft gut! 🌤️",
			StyleFormal: "Guten Tag. Ich hoffe, Sie haben einen produktiven Tag.",
			StyleBrief:  "Guten Tag! 🌤️",
		},
		greeting.LanguageJapanese: {
			StyleCasual: "こんにちは！良い一日をお過ごしください！🌤️",
			StyleFormal: "こんにちは。生産的な一日をお過ごしください。",
			StyleBrief:  "こんにちは！🌤️",
		},
	},
	PeriodEvening: {
		greeting.LanguageEnglish: {
			StyleCasual: "Good evening! Time to start winding down! 🌅",
			StyleFormal: "Good evening. I hope you are having a pleasant evening.",
			StyleBrief:  "Good evening! 🌅",
		},
		greeting.LanguageSpanish: {
			StyleCasual: "¡Buenas noches! ¡Hora de comenzar a relajarse! 🌅",
			StyleFormal: "Buenas noches. Espero que tenga una tarde agradable.",
			StyleBrief:  "¡Buenas noches! 🌅",
		},
		greeting.LanguageFrench: {
			StyleCasual: "Bonsoir! Il est temps de commencer à se détendre! 🌅",
			StyleFormal: "Bonsoir. J'espère que vous passez une soirée agréable.",
			StyleBrief:  "Bonsoir! 🌅",
		},
		greeting.LanguageGerman: {
			StyleCasual: "Guten Abend! Zeit, sich zu entspannen! 🌅",
			StyleFormal: "Guten Abend. Ich hoffe, Sie haben einen angenehmen Abend.",
			StyleBrief:  "Guten Abend! 🌅",
		},
		greeting.LanguageJapanese: {
			StyleCasual: "こんばんは！リラックスする時間ですね！🌅",
			StyleFormal: "こんばんは。素敵な夜をお過ごしください。",
			StyleBrief:  "こんばんは！🌅",
		},
	},
	PeriodNight: {
		greeting.LanguageEnglish: {
			StyleCasual: "Good evening! Getting late, but still time to relax! 🌙",
			StyleFormal: "Good evening. The day is drawing to a close.",
			StyleBrief:  "Good evening! 🌙",
		},
		greeting.LanguageSpanish: {
			StyleCasual: "¡Buenas noches! Se está haciendo tarde, ¡pero aún hay tiempo para relajarse! 🌙",
			StyleFormal: "Buenas noches. El día está llegando a su fin.",
			StyleBrief:  "¡Buenas noches! 🌙",
		},
		greeting.LanguageFrench: {
			StyleCasual: "Bonsoir! Il se fait tard, mais il y a encore du temps pour se détendre! 🌙",
			StyleFormal: "Bonsoir. La journée touche à sa fin.",
			StyleBrief:  "Bonsoir! 🌙",
		},
		greeting.LanguageGerman: {
			StyleCasual: "Guten Abend! Es wird spät, aber es ist noch Zeit zum Entspannen! 🌙",
			StyleFormal: "Guten Abend. Der Tag neigt sich dem Ende zu.",
			StyleBrief:  "Guten Abend! 🌙",
		},
		greeting.LanguageJapanese: {
			StyleCasual: "こんばんは！遅くなりましたが、まだリラックスする時間があります！🌙",
			StyleFormal: "こんばんは。一日が終わりに近づいています。",
			StyleBrief:  "こんばんは！🌙",
		},
	},
	PeriodLateNight: {
		greeting.LanguageEnglish: {
			StyleCasual: "Good night! You're up quite late! 🌛",
			StyleFormal: "Good evening. You are up rather late tonight.",
			StyleBrief:  "Late night! 🌛",
		},
		greeting.LanguageSpanish: {
			StyleCasual: "¡Buenas noches! ¡Estás despierto bastante tarde! 🌛",
			StyleFormal: "Buenas noches. Está despierto bastante tarde esta noche.",
			StyleBrief:  "¡Noche tardía! 🌛",
		},
		greeting.LanguageFrench: {
			StyleCasual: "Bonne nuit! Vous êtes debout assez tard! 🌛",
			StyleFormal: "Bonsoir. Vous êtes debout assez tard ce soir.",
			StyleBrief:  "Nuit tardive! 🌛",
		},
		greeting.LanguageGerman: {
			StyleCasual: "Gute Nacht! Sie sind ziemlich spät auf! 🌛",
			StyleFormal: "Guten Abend. Sie sind heute Abend ziemlich spät wach.",
			StyleBrief:  "Späte Nacht! 🌛",
		},
		greeting.LanguageJapanese: {
			StyleCasual: "こんばんは！かなり遅くまで起きていますね！🌛",
			StyleFormal: "こんばんは。今夜は遅くまで起きていらっしゃいますね。",
			StyleBrief:  "深夜！🌛",
		},
	},
}
