package chromameter

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ztkent/chroma-meter/tcs34725"
)

//go:embed html/*
var templateFiles embed.FS

type Meter struct {
	*tcs34725.TCS34725
	ColorResultsChan chan ColorResults
	ResultsDB        *sql.DB
	cancel           context.CancelFunc
	Pid              int
}

type ColorResults struct {
	Lux             int
	ColorTempKelvin int
	Clear           uint16
	Red             uint16
	Green           uint16
	Blue            uint16
	Saturated       bool
	JobID           string
}

type Conditions struct {
	JobID                   string  `json:"jobID"`
	Lux                     int     `json:"lux"`
	ColorTempKelvin         int     `json:"colorTempKelvin"`
	Red                     int     `json:"red"`
	Green                   int     `json:"green"`
	Blue                    int     `json:"blue"`
	DateRange               string  `json:"dateRange"`
	RecordedHoursInRange    float64 `json:"recordedHoursInRange"`
	FullSunlightInRange     float64 `json:"fullSunlightInRange"`
	LightConditionInRange   string  `json:"lightConditionInRange"`
	AverageLuxInRange       float64 `json:"averageLuxInRange"`
	AverageColorTempInRange float64 `json:"averageColorTempInRange"`
}

const (
	MAX_JOB_DURATION = 8 * time.Hour
	RECORD_INTERVAL  = 30 * time.Second
	DB_PATH          = "chromameter.db"
)

// Start the sensor, and collect data in a loop
func (m *Meter) Start() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Println("Let's see some color!")
		if m.TCS34725 == nil {
			ServeResponse(w, r, "The sensor is not connected", http.StatusBadRequest)
			return
		} else if m.Enabled() {
			ServeResponse(w, r, "The sensor is already started", http.StatusBadRequest)
			return
		}

		go func() {
			// Create a new context with a timeout to manage the sensor lifecycle
			ctx, cancel := context.WithTimeout(context.Background(), MAX_JOB_DURATION)
			m.cancel = cancel

			// Enable the sensor
			m.Enable()
			defer m.Disable()

			jobID := uuid.New().String()
			ticker := time.NewTicker(RECORD_INTERVAL)
			for {
				// Check if we've cancelled this job.
				select {
				case <-ctx.Done():
					log.Println("Job Cancelled, stopping sensor")
					return
				default:
				}

				// Read the sensor
				sample, err := m.ReadColor()
				if err != nil {
					log.Println(fmt.Sprintf("The sensor failed to read a sample: %s", err.Error()))
					m.ColorResultsChan <- ColorResults{
						JobID: jobID,
					}
					<-ticker.C
					continue
				}

				// Run the DN40 calculation against the current configuration
				result, err := m.computeSample(sample)
				if err != nil {
					log.Println(fmt.Sprintf("The sensor failed to calculate lux: %s", err.Error()))
					<-ticker.C
					continue
				}
				if result.Saturated {
					// Too much light for the current gain, back off a step
					// before the next sample.
					log.Println("The clear channel is saturated, lowering sensor gain")
					if _, err := m.LowerGain(); err != nil {
						log.Println(fmt.Sprintf("The sensor failed to lower its gain: %s", err.Error()))
					}
				}

				// Send the results to the ColorResultsChan
				m.ColorResultsChan <- ColorResults{
					Lux:             result.Lux,
					ColorTempKelvin: result.ColorTempKelvin,
					Clear:           sample.Clear,
					Red:             sample.Red,
					Green:           sample.Green,
					Blue:            sample.Blue,
					Saturated:       result.Saturated,
					JobID:           jobID,
				}
				<-ticker.C
			}
		}()
		w.WriteHeader(http.StatusOK)
		ServeResponse(w, r, "Color Reading Started", http.StatusOK)
		return
	}
}

// computeSample pulls the live configuration off the chip and feeds it to
// the DN40 engine.
func (m *Meter) computeSample(sample tcs34725.RawColor) (tcs34725.LuxResult, error) {
	integrationTime, err := m.IntegrationTime()
	if err != nil {
		return tcs34725.LuxResult{}, err
	}
	gain, err := m.Gain()
	if err != nil {
		return tcs34725.LuxResult{}, err
	}
	return tcs34725.ComputeLux(sample, integrationTime, gain, m.GlassAttenuation())
}

// Stop the sensor, and cancel the job context
func (m *Meter) Stop() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.TCS34725 == nil {
			ServeResponse(w, r, "The sensor is not connected", http.StatusBadRequest)
			return
		} else if !m.Enabled() {
			ServeResponse(w, r, "The sensor is already stopped", http.StatusBadRequest)
			return
		}

		// Stop the sensor, cancel the job context
		defer m.Disable()
		m.cancel()

		w.WriteHeader(http.StatusOK)
		ServeResponse(w, r, "Color Reading Stopped", http.StatusOK)
		return
	}
}

// Turn the illumination LED on or off
func (m *Meter) Light(on bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.TCS34725 == nil {
			ServeResponse(w, r, "The sensor is not connected", http.StatusBadRequest)
			return
		}
		var err error
		if on {
			err = m.LightOn()
		} else {
			err = m.LightOff()
		}
		if err != nil {
			log.Println(err)
			ServeResponse(w, r, err.Error(), http.StatusBadRequest)
			return
		}

		w.WriteHeader(http.StatusOK)
		if on {
			ServeResponse(w, r, "Illumination LED On", http.StatusOK)
		} else {
			ServeResponse(w, r, "Illumination LED Off", http.StatusOK)
		}
		return
	}
}

// Serve data about the most recent entry saved to the db
func (m *Meter) CurrentConditions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.TCS34725 == nil {
			ServeResponse(w, r, "The sensor is not connected", http.StatusBadRequest)
			return
		} else if !m.Enabled() {
			ServeResponse(w, r, "The sensor is not enabled", http.StatusBadRequest)
			return
		}
		conditions, err := m.getCurrentConditions()
		if err != nil {
			log.Println(err)
			ServeResponse(w, r, err.Error(), http.StatusInternalServerError)
			return
		}

		conditionsData, err := json.Marshal(conditions)
		if err != nil {
			log.Println(err)
			ServeResponse(w, r, err.Error(), http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
		ServeResponse(w, r, string(conditionsData), http.StatusOK)
		return
	}
}

// Return the most recent entry saved to the db
func (m *Meter) getCurrentConditions() (Conditions, error) {
	if m.TCS34725 == nil || !m.Enabled() {
		return Conditions{}, nil
	}
	conditions := Conditions{}
	row := m.ResultsDB.QueryRow("SELECT job_id, lux, color_temp, red, green, blue FROM readings ORDER BY id DESC LIMIT 1")
	err := row.Scan(&conditions.JobID, &conditions.Lux, &conditions.ColorTempKelvin, &conditions.Red, &conditions.Green, &conditions.Blue)
	if err != nil {
		log.Println(err)
		return Conditions{}, err
	}
	return conditions, nil
}

// Check the signal strength of the wifi connection
func (m *Meter) SignalStrength() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd := exec.Command("sh", "-c", "iw dev wlan0 link | grep 'signal:' | awk '{print $2}'")
		output, err := cmd.Output()
		if err != nil {
			log.Println(err)
			ServeResponse(w, r, err.Error(), http.StatusInternalServerError)
			return
		}
		signalInt, err := strconv.Atoi(strings.TrimSpace(string(output)))
		if err != nil {
			ServeResponse(w, r, "Device is not connected to a network", http.StatusBadRequest)
			return
		}

		// Convert the signal to a strength value
		// https://git.openwrt.org/?p=project/iwinfo.git;a=blob;f=iwinfo_nl80211.c;hb=HEAD#l2885
		if signalInt < -110 {
			signalInt = -110
		} else if signalInt > -40 {
			signalInt = -40
		}

		// Scale the signal to a percentage
		strength := (signalInt + 110) * 100 / 70
		if strength < 0 {
			strength = 0
		} else if strength > 100 {
			strength = 100
		}

		log.Println("Signal: ", fmt.Sprintf("%d", signalInt), " dBm")
		log.Println("Strength: ", strength, "%")

		w.WriteHeader(http.StatusOK)
		ServeResponse(w, r, "Signal Strength: "+fmt.Sprintf("%d", signalInt)+" dBm\nQuality: "+fmt.Sprintf("%d", strength)+"%", http.StatusOK)
		return
	}
}

// Populate the response div with a message, or reply with a JSON message
func ServeResponse(w http.ResponseWriter, r *http.Request, message string, status int) {
	if strings.Contains(r.URL.Path, "/api/v1/") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"message": message})
		return
	}

	tmpl, err := parseTemplateFile("html/response.gohtml")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	err = tmpl.Execute(w, message)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func parseTemplateFile(path string) (*template.Template, error) {
	content, err := templateFiles.ReadFile(path)
	if err != nil {
		log.Fatalf("failed to read embedded template: %v", err)
	}

	tmpl, err := template.New("results").Parse(string(content))
	if err != nil {
		log.Fatalf("failed to parse template: %v", err)
	}
	return tmpl, nil
}

// Read from ColorResultsChan, write the results to sqlite
func (m *Meter) MonitorAndRecordResults() {
	log.Println("Monitoring for new Color Messages...")
	for {
		select {
		case result := <-m.ColorResultsChan:
			log.Println(fmt.Sprintf("- JobID: %s, Lux: %d, CCT: %dK", result.JobID, result.Lux, result.ColorTempKelvin))
			if result.Saturated {
				log.Println("Sample is saturated, skipping record")
				continue
			}
			_, err := m.ResultsDB.Exec(
				"INSERT INTO readings (job_id, lux, color_temp, clear, red, green, blue) VALUES (?, ?, ?, ?, ?, ?, ?)",
				result.JobID,
				result.Lux,
				result.ColorTempKelvin,
				result.Clear,
				result.Red,
				result.Green,
				result.Blue,
			)
			if err != nil {
				log.Println(err)
			}
		}
	}
}
