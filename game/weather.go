package game

import "fmt"

// SetWeather replaces the active weather. A nil weather clears it.
func (g *Game) SetWeather(w *Weather) error {
	return g.apply(EventWeather, "", func(s *State) error {
		if w == nil {
			s.CurrentWeather = nil
			return nil
		}
		if w.Length != nil && *w.Length <= 0 {
			return fmt.Errorf("%w: weather length %d", ErrInvalidModifier, *w.Length)
		}
		s.CurrentWeather = &ActiveWeather{Weather: cloneWeather(*w)}
		return nil
	})
}

// rollWeather ages the active weather by one day and, once it has run its
// length, rolls the catalog in order; the first entry whose chance hits wins.
// It reports whether the weather changed.
func (g *Game) rollWeather(s *State) bool {
	expired := false
	if cw := s.CurrentWeather; cw != nil {
		cw.DaysActive++
		length := 1
		if cw.Length != nil {
			length = *cw.Length
		}
		if cw.DaysActive < length {
			return false
		}
		s.CurrentWeather = nil
		expired = true
	}

	for _, w := range g.catalog.Weather {
		if g.rng.Float64() < w.Chance {
			s.CurrentWeather = &ActiveWeather{Weather: cloneWeather(w)}
			return true
		}
	}
	return expired
}

// weatherModifiers expresses the active weather as modifiers so it goes
// through the same fold as every other transient effect.
func weatherModifiers(w *ActiveWeather) []Modifier {
	if w == nil {
		return nil
	}
	out := make([]Modifier, 0, len(w.Effects))
	for i, e := range w.Effects {
		out = append(out, Modifier{
			ID:           fmt.Sprintf("weather:%s:%d", w.Name, i),
			Name:         w.Name,
			Affects:      e.Affects,
			Producer:     e.ProducerTarget,
			ProducerType: e.ProducerType,
			Mods:         e.Mods,
		})
	}
	return out
}

// activeModifiers returns stored modifiers followed by weather-derived ones.
func activeModifiers(s *State) []Modifier {
	weather := weatherModifiers(s.CurrentWeather)
	if len(weather) == 0 {
		return s.Entities.Modifiers
	}
	out := make([]Modifier, 0, len(s.Entities.Modifiers)+len(weather))
	out = append(out, s.Entities.Modifiers...)
	return append(out, weather...)
}
