// Package phys holds the SI physical constants shared across the solver.
package phys

const (
	// C is the speed of light in vacuum [m/s].
	C = 299792458.0

	// Eps0 is the vacuum permittivity [F/m].
	Eps0 = 8.8541878128e-12

	// ElectronCharge is the elementary charge [C].
	ElectronCharge = 1.602176634e-19

	// ElectronMass is the electron rest mass [kg].
	ElectronMass = 9.1093837015e-31

	// Hbar is the reduced Planck constant [J s].
	Hbar = 1.054571817e-34

	// AtomicEnergy is the Hartree energy [J], used to scale ionization rates.
	AtomicEnergy = 4.3597447222071e-18

	// AtomicField is the atomic unit of electric field strength [V/m].
	AtomicField = 5.14220674763e11

	// AtomicTime is the atomic unit of time [s].
	AtomicTime = 2.4188843265857e-17

	// RefDensity is the number density of an ideal gas at standard
	// conditions (1 bar, 273.15 K) [1/m^3]. Gas index models are tabulated
	// at this density.
	RefDensity = 2.6516467e25
)
